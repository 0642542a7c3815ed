// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server serves the article browser, the interactive quiz and a
// small JSON API over the article store.
package server

import (
	"context"
	"embed"
	"encoding/gob"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/logger"
	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionName   = "science-digest"
	attemptPrefix = "attempt:"
	searchLimit   = 100

	// minIndexedTermRunes is the shortest term the trigram index can match.
	minIndexedTermRunes = 3
)

func init() {
	gob.Register(quiz.Attempt{})
}

// Searcher ranks article ids for a free-text query and reports which
// articles it covers. The catalog implements it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	IndexedIDs(ctx context.Context) (map[string]bool, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	store    *articles.Store
	searcher Searcher
	sessions *sessions.CookieStore
	tmpl     *template.Template
	grade    quiz.Grader
	cfg      types.ServerConfig
	log      *logger.Logger
}

// New builds a server. searcher may be nil, in which case search falls back
// to a substring match over titles and article text.
func New(store *articles.Store, searcher Searcher, cfg types.ServerConfig, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Discard()
	}

	key := []byte(cfg.SessionSecret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generating session key")
		}
		log.Warn("no session secret configured, quiz progress resets on restart")
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	grade := quiz.Grade
	if cfg.StrictGrading {
		grade = quiz.GradeStrict
	}

	return &Server{
		store:    store,
		searcher: searcher,
		sessions: cs,
		tmpl:     tmpl,
		grade:    grade,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Router wires the HTML pages and the /api/v1 group.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.log.Level() <= slog.LevelDebug {
		r.Use(gin.Logger())
	}
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/", s.handleIndex)
	r.POST("/articles/:id/quiz", s.handleQuiz)

	apiV1 := r.Group("/api/v1")
	if len(s.cfg.AllowedOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = s.cfg.AllowedOrigins
		config.AllowHeaders = append(config.AllowHeaders, "Content-Type")
		apiV1.Use(cors.New(config))
	}
	{
		apiV1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
		})
		apiV1.GET("/articles", s.handleAPIList)
		apiV1.GET("/articles/:id", s.handleAPIGet)
		apiV1.POST("/articles/:id/grade", s.handleAPIGrade)
	}
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// loadArticles reads the store on every request so new articles appear
// without a restart.
func (s *Server) loadArticles() ([]types.Article, error) {
	list, err := s.store.Load()
	if err != nil {
		s.log.Error("loading articles", "dir", s.store.Dir, "error", err)
	}
	return list, err
}

// search narrows list to the articles matching q. Index hits come first in
// rank order, followed by substring matches among articles the index does
// not hold yet. Queries with a term too short for the trigram index, or an
// index error, fall back to a substring scan of the whole list.
func (s *Server) search(ctx context.Context, list []types.Article, q string) []types.Article {
	if q == "" {
		return list
	}
	if s.searcher == nil || !indexable(q) {
		return substringSearch(list, q)
	}

	ids, err := s.searcher.Search(ctx, q, searchLimit)
	if err != nil {
		s.log.Warn("index search failed, scanning articles", "error", err)
		return substringSearch(list, q)
	}
	indexed, err := s.searcher.IndexedIDs(ctx)
	if err != nil {
		s.log.Warn("listing indexed articles failed, scanning articles", "error", err)
		return substringSearch(list, q)
	}

	var out []types.Article
	for _, id := range ids {
		if a, findErr := articles.Find(list, id); findErr == nil {
			out = append(out, a)
		}
	}
	var unindexed []types.Article
	for _, a := range list {
		if !indexed[a.ID] {
			unindexed = append(unindexed, a)
		}
	}
	return append(out, substringSearch(unindexed, q)...)
}

// indexable reports whether every term of q is long enough for the index.
func indexable(q string) bool {
	terms := strings.Fields(q)
	if len(terms) == 0 {
		return false
	}
	for _, t := range terms {
		if utf8.RuneCountInString(t) < minIndexedTermRunes {
			return false
		}
	}
	return true
}

// attempt returns the stored attempt for id, or a fresh one.
func (s *Server) attempt(r *http.Request, id string) (*sessions.Session, quiz.Attempt) {
	sess, err := s.sessions.Get(r, sessionName)
	if err != nil {
		s.log.Debug("discarding unreadable session", "error", err)
	}
	if a, ok := sess.Values[attemptPrefix+id].(quiz.Attempt); ok && a.ArticleID == id {
		return sess, a
	}
	return sess, quiz.NewAttempt(id)
}

// saveAttempt stores a in the session. When the cookie grows past its size
// limit, attempts for other articles are dropped and the save retried.
func (s *Server) saveAttempt(c *gin.Context, sess *sessions.Session, a quiz.Attempt) error {
	key := attemptPrefix + a.ArticleID
	if a.State == quiz.Unanswered {
		delete(sess.Values, key)
	} else {
		sess.Values[key] = a
	}
	err := sess.Save(c.Request, c.Writer)
	if err == nil {
		return nil
	}
	s.log.Debug("session too large, keeping current attempt only", "error", err)
	for k := range sess.Values {
		if k != key {
			delete(sess.Values, k)
		}
	}
	return sess.Save(c.Request, c.Writer)
}
