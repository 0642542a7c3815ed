// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// articlePromptTmpl asks for a Traditional Chinese article for senior high
// school students followed by the quiz marker and a JSON quiz object.
var articlePromptTmpl = template.Must(template.New("article").Parse(`你是一位台灣資深的高中【{{.Label}}】老師，專精於準備「分科測驗」。
請閱讀以下學術論文摘要，將其轉化為一篇適合高中生閱讀的科普文章。

=== 論文資訊 ===
標題: {{.Title}}
科目: {{.Label}} (對應章節: {{.Chapter}})
摘要: {{.Summary}}
===============

請依據以下格式輸出：

# {{.Title}} (中文標題)

## 1. 研究背景與課本關聯
(用 150 字以內，用生活化例子引入。請明確指出這與高中{{.Label}}課本的「{{.Chapter}}」章節有何關聯。)

## 2. 核心發現
(用 300-500 字解釋研究內容。請務必使用台灣高中{{.Label}}科的專有名詞。避免過度使用生硬翻譯。)

---
(以下為隱藏資料，請務必嚴格遵守 JSON 格式，不要加 Markdown code block 標記)

{{.Marker}}
{
    "question": "這裡填寫設計好的混合題題目敘述 (請設計一題結合{{.Label}}觀念的應用題)",
    "options": [
        "(A) 選項一內容",
        "(B) 選項二內容",
        "(C) 選項三內容",
        "(D) 選項四內容"
    ],
    "correct_answer": "A",
    "explanation": "這裡填寫詳解，解釋為什麼 A 是對的，其他是錯的。"
}
`))

type promptData struct {
	Label   string
	Title   string
	Chapter string
	Summary string
	Marker  string
}

// RenderPrompt builds the generation prompt for one paper.
func RenderPrompt(p types.Paper) (string, error) {
	chapter := p.MappingChapter
	if chapter == "" {
		chapter = "相關領域"
	}
	var buf bytes.Buffer
	err := articlePromptTmpl.Execute(&buf, promptData{
		Label:   types.SubjectLabel(p.Subject),
		Title:   p.Title,
		Chapter: chapter,
		Summary: p.Summary,
		Marker:  quiz.Marker,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GeminiBackend calls Gemini through its OpenAI-compatible chat API.
type GeminiBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewGeminiBackend configures a client from cfg. An empty BaseURL or Model
// falls back to the Gemini defaults.
func NewGeminiBackend(cfg types.AIConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("no API key: set GEMINI_API_KEY or .secrets/gemini-api-key")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(baseURL, "/")
	return &GeminiBackend{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends prompt as a single user message and returns the reply text.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
