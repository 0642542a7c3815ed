// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

func postJSON(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestAPIHealth(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	w := get(t, srv.Router(), "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
}

func TestAPIList(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/v1/articles", []string{photosynthesisID, superconductorsID, catalystsID}},
		{"/api/v1/articles?subject=chemistry", []string{catalystsID}},
		{"/api/v1/articles?q=sugar", []string{photosynthesisID}},
		{"/api/v1/articles?subject=physics&q=sugar", nil},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, srv.Router(), tt.target)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Articles []ArticleSummary `json:"articles"`
				Count    int              `json:"count"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			var ids []string
			for _, a := range resp.Articles {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}

func TestAPIGet(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	t.Run("quiz hides the answer", func(t *testing.T) {
		w := get(t, srv.Router(), "/api/v1/articles/"+superconductorsID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "correct_answer")
		assert.NotContains(t, w.Body.String(), "Cooper pairs")

		var d ArticleDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
		assert.Equal(t, "Superconductors", d.Title)
		assert.Equal(t, types.SubjectPhysics, d.Subject)
		assert.Equal(t, "Electrons pair up below a critical temperature.\n\nResistance then drops to zero.", d.Body)
		require.NotNil(t, d.Quiz)
		assert.Equal(t, []string{"(A) electrons pair up", "(B) magnets melt"}, d.Quiz.Options)
		assert.Nil(t, d.QuizError)
	})

	t.Run("malformed quiz", func(t *testing.T) {
		w := get(t, srv.Router(), "/api/v1/articles/"+photosynthesisID)
		require.Equal(t, http.StatusOK, w.Code)

		var d ArticleDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
		assert.Nil(t, d.Quiz)
		require.NotNil(t, d.QuizError)
		assert.Equal(t, "invalid JSON", d.QuizError.Reason)
		assert.Equal(t, `{"question": "broken",`, d.QuizError.Text)
	})

	t.Run("no quiz", func(t *testing.T) {
		w := get(t, srv.Router(), "/api/v1/articles/"+catalystsID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"quiz":null`)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, srv.Router(), "/api/v1/articles/nope").Code)
	})
}

func TestAPIGrade(t *testing.T) {
	target := "/api/v1/articles/" + superconductorsID + "/grade"

	t.Run("correct", func(t *testing.T) {
		srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})
		w := postJSON(t, srv.Router(), target, `{"option":0}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp GradeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, GradeResponse{
			Outcome:       quiz.Correct,
			Selected:      "(A) electrons pair up",
			CorrectAnswer: "A",
			Explanation:   "Cooper pairs carry current without loss.",
		}, resp)
	})

	t.Run("incorrect", func(t *testing.T) {
		srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})
		w := postJSON(t, srv.Router(), target, `{"option":1}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"outcome":"incorrect"`)
	})

	errorCases := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"missing option", target, `{}`, http.StatusBadRequest},
		{"invalid body", target, `not json`, http.StatusBadRequest},
		{"out of range", target, `{"option":2}`, http.StatusUnprocessableEntity},
		{"negative", target, `{"option":-1}`, http.StatusUnprocessableEntity},
		{"malformed quiz", "/api/v1/articles/" + photosynthesisID + "/grade", `{"option":0}`, http.StatusUnprocessableEntity},
		{"no quiz", "/api/v1/articles/" + catalystsID + "/grade", `{"option":0}`, http.StatusUnprocessableEntity},
		{"unknown article", "/api/v1/articles/nope/grade", `{"option":0}`, http.StatusNotFound},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})
			w := postJSON(t, srv.Router(), tt.target, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestAPIGradeStrict(t *testing.T) {
	store := writeFixtures(t)
	srv := newTestServer(t, store, nil, types.ServerConfig{StrictGrading: true})

	w := postJSON(t, srv.Router(), "/api/v1/articles/"+superconductorsID+"/grade", `{"option":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"correct"`)
}

func TestAPICORS(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
