// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

func TestRenderPrompt(t *testing.T) {
	p := types.Paper{
		Title:          "Catalytic Synthesis",
		Summary:        "We report a catalyst.",
		MappingChapter: "有機化學 (Organic Chemistry)",
		Subject:        types.SubjectChemistry,
	}
	got, err := RenderPrompt(p)
	require.NoError(t, err)

	assert.Contains(t, got, "高中【化學】老師")
	assert.Contains(t, got, "標題: Catalytic Synthesis\n")
	assert.Contains(t, got, "摘要: We report a catalyst.")
	assert.Contains(t, got, "「有機化學 (Organic Chemistry)」")
	assert.Contains(t, got, quiz.Marker+"\n{")
	assert.Contains(t, got, `"correct_answer": "A"`)
}

func TestRenderPromptDefaults(t *testing.T) {
	got, err := RenderPrompt(types.Paper{Title: "T", Subject: "astronomy"})
	require.NoError(t, err)
	assert.Contains(t, got, "【自然科】")
	assert.Contains(t, got, "對應章節: 相關領域")
}

func TestRenderPromptDoesNotEscape(t *testing.T) {
	got, err := RenderPrompt(types.Paper{Title: "A <b> & C", Summary: `"quoted"`})
	require.NoError(t, err)
	assert.Contains(t, got, "A <b> & C")
	assert.Contains(t, got, `"quoted"`)
}

func TestGeminiBackend(t *testing.T) {
	var gotAuth string
	var gotReq struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"文章內容"},"finish_reason":"stop"}]}`)
	}))
	defer ts.Close()

	g, err := NewGeminiBackend(types.AIConfig{
		APIKey:      "test-key",
		BaseURL:     ts.URL + "/",
		Model:       "gemini-test",
		Temperature: 0.4,
	})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "文章內容", got)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gemini-test", gotReq.Model)
	assert.InDelta(t, 0.4, gotReq.Temperature, 1e-6)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "hello", gotReq.Messages[0].Content)
}

func TestGeminiBackendErrors(t *testing.T) {
	_, err := NewGeminiBackend(types.AIConfig{})
	assert.Error(t, err, "missing key")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer ts.Close()

	g, err := NewGeminiBackend(types.AIConfig{APIKey: "k", BaseURL: ts.URL})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "hello")
	assert.Error(t, err)
}
