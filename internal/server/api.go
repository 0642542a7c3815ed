// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

// ArticleSummary is one entry of the article list.
type ArticleSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Published   string `json:"published"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	ProcessedAt string `json:"processed_at"`
}

// QuizQuestion is the reader-facing part of a quiz. The answer and
// explanation are only returned by grading.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizError describes a quiz that failed validation.
type QuizError struct {
	Reason string `json:"reason"`
	Text   string `json:"text"`
}

// ArticleDetail is one article with its prose split from the quiz.
type ArticleDetail struct {
	ArticleSummary
	Chapter   string        `json:"chapter"`
	Keyword   string        `json:"keyword"`
	Body      string        `json:"body"`
	Quiz      *QuizQuestion `json:"quiz"`
	QuizError *QuizError    `json:"quiz_error,omitempty"`
}

// GradeRequest carries the zero-based index of the chosen option.
type GradeRequest struct {
	Option *int `json:"option" binding:"required"`
}

// GradeResponse is the result of grading one answer.
type GradeResponse struct {
	Outcome       quiz.Outcome `json:"outcome"`
	Selected      string       `json:"selected"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
}

func summarize(a types.Article) ArticleSummary {
	return ArticleSummary{
		ID:          a.ID,
		Title:       a.Meta.Title,
		Subject:     a.SubjectCategory,
		Published:   a.Meta.Published,
		Source:      a.Meta.Source,
		URL:         a.Meta.URL,
		ProcessedAt: a.ProcessedAt,
	}
}

func (s *Server) handleAPIList(c *gin.Context) {
	list, err := s.loadArticles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return
	}
	filtered := articles.Filter(list, c.DefaultQuery("subject", articles.AllSubjects))
	filtered = s.search(c.Request.Context(), filtered, strings.TrimSpace(c.Query("q")))

	out := make([]ArticleSummary, 0, len(filtered))
	for _, a := range filtered {
		out = append(out, summarize(a))
	}
	c.JSON(http.StatusOK, gin.H{"articles": out, "count": len(out)})
}

func (s *Server) handleAPIGet(c *gin.Context) {
	a, ok := s.findArticle(c)
	if !ok {
		return
	}

	ext, payload, err := quiz.Parse(a.Content)
	detail := ArticleDetail{
		ArticleSummary: summarize(a),
		Chapter:        a.Meta.MappingChapter,
		Keyword:        a.Meta.MappingKeyword,
		Body:           strings.TrimSpace(ext.Article),
	}
	var mqe *quiz.MalformedQuizError
	switch {
	case errors.As(err, &mqe):
		detail.QuizError = &QuizError{Reason: mqe.Reason, Text: mqe.Text}
	case payload != nil:
		detail.Quiz = &QuizQuestion{Question: payload.Question, Options: payload.Options}
	}
	c.JSON(http.StatusOK, detail)
}

// handleAPIGrade grades a single answer without touching session state.
func (s *Server) handleAPIGrade(c *gin.Context) {
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, ok := s.findArticle(c)
	if !ok {
		return
	}
	_, payload, err := quiz.Parse(a.Content)
	if payload == nil {
		msg := "article has no quiz"
		if err != nil {
			msg = err.Error()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}

	attempt := quiz.NewAttempt(a.ID)
	if err := attempt.Select(*payload, *req.Option); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	outcome, err := attempt.Submit(*payload, s.grade)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GradeResponse{
		Outcome:       outcome,
		Selected:      attempt.SelectedOption(*payload),
		CorrectAnswer: strings.ToUpper(strings.TrimSpace(payload.CorrectAnswer)),
		Explanation:   payload.Explanation,
	})
}

// findArticle writes the error response itself when ok is false.
func (s *Server) findArticle(c *gin.Context) (types.Article, bool) {
	list, err := s.loadArticles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return types.Article{}, false
	}
	a, err := articles.Find(list, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return types.Article{}, false
	}
	return a, true
}
