// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/logger"
	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

const (
	superconductorsID = "20260301_Supercondu"
	photosynthesisID  = "20260302_Photosynth"
	catalystsID       = "20260201_Catalysts"
)

const superconductorsContent = `Electrons pair up below a critical temperature.

Resistance then drops to zero.

===QUIZ_JSON===
{"question":"What happens below the critical temperature?","options":["(A) electrons pair up","(B) magnets melt"],"correct_answer":"a","explanation":"Cooper pairs carry current without loss."}`

const photosynthesisContent = `Plants turn light into sugar.

===QUIZ_JSON===
{"question": "broken",`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func writeFixtures(t *testing.T) *articles.Store {
	t.Helper()
	store := articles.NewStore(t.TempDir())
	fixtures := []struct {
		paper   types.Paper
		content string
		at      time.Time
	}{
		{
			paper:   types.Paper{Title: "Superconductors", Subject: types.SubjectPhysics, Published: "2026-02-20", Source: types.SourceArxiv, URL: "http://arxiv.org/abs/1"},
			content: superconductorsContent,
			at:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local),
		},
		{
			paper:   types.Paper{Title: "Photosynthesis", Subject: types.SubjectBiology, Published: "2025", Source: types.SourcePubMed},
			content: photosynthesisContent,
			at:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local),
		},
		{
			paper:   types.Paper{Title: "Catalysts", Subject: types.SubjectChemistry, Published: "2025"},
			content: "Catalysts speed up reactions without being consumed.",
			at:      time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local),
		},
	}
	for _, f := range fixtures {
		_, err := store.Write(articles.New(f.paper, f.content, f.at))
		require.NoError(t, err)
	}
	return store
}

func newTestServer(t *testing.T, store *articles.Store, searcher Searcher, cfg types.ServerConfig) *Server {
	t.Helper()
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	}
	srv, err := New(store, searcher, cfg, logger.Discard())
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

type stubSearcher struct {
	ids     []string
	indexed map[string]bool
	err     error
	calls   int
}

func (s *stubSearcher) Search(context.Context, string, int) ([]string, error) {
	s.calls++
	return s.ids, s.err
}

func (s *stubSearcher) IndexedIDs(context.Context) (map[string]bool, error) {
	return s.indexed, nil
}

var allFixtureIDs = map[string]bool{superconductorsID: true, photosynthesisID: true, catalystsID: true}

func TestIndexEmptyStore(t *testing.T) {
	srv := newTestServer(t, articles.NewStore(t.TempDir()), nil, types.ServerConfig{})

	w := get(t, srv.Router(), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "還沒有文章")
	assert.Contains(t, w.Body.String(), "共 0 篇文章")
}

func TestIndexDefaultsToNewestArticle(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	body := get(t, srv.Router(), "/").Body.String()
	assert.Contains(t, body, "共 3 篇文章")
	assert.Contains(t, body, "<h2>Photosynthesis</h2>")
	assert.Contains(t, body, "BIOLOGY")
	assert.Contains(t, body, "測驗格式有誤")
	assert.Contains(t, body, `{&#34;question&#34;: &#34;broken&#34;,`)
}

func TestIndexSubjectFilter(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	body := get(t, srv.Router(), "/?subject=physics").Body.String()
	assert.Contains(t, body, "共 1 篇文章")
	assert.Contains(t, body, "<h2>Superconductors</h2>")
	assert.Contains(t, body, "<p>Resistance then drops to zero.</p>")
	assert.Contains(t, body, "What happens below the critical temperature?")
	assert.NotContains(t, body, "Photosynthesis</a>")
}

func TestIndexArticleWithoutQuiz(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	body := get(t, srv.Router(), "/?article="+catalystsID).Body.String()
	assert.Contains(t, body, "Catalysts speed up reactions")
	assert.NotContains(t, body, "隨堂測驗")
}

func TestIndexEmptySubject(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	body := get(t, srv.Router(), "/?subject=geology").Body.String()
	assert.Contains(t, body, "這個分類目前沒有符合的文章")
}

func TestIndexSearchShortTerm(t *testing.T) {
	store := writeFixtures(t)
	_, err := store.Write(articles.New(
		types.Paper{Title: "量子點的顏色", Subject: types.SubjectPhysics},
		"量子點的大小決定它發出的光。", time.Date(2026, 3, 3, 9, 0, 0, 0, time.Local)))
	require.NoError(t, err)

	searcher := &stubSearcher{indexed: allFixtureIDs}
	srv := newTestServer(t, store, searcher, types.ServerConfig{})

	body := get(t, srv.Router(), "/?q="+url.QueryEscape("量子")).Body.String()
	assert.Contains(t, body, "共 1 篇文章")
	assert.Contains(t, body, "<h2>量子點的顏色</h2>")
	assert.Zero(t, searcher.calls)
}

func TestIndexSearchIncludesUnindexedArticles(t *testing.T) {
	searcher := &stubSearcher{
		ids:     []string{catalystsID},
		indexed: map[string]bool{catalystsID: true, photosynthesisID: true},
	}
	srv := newTestServer(t, writeFixtures(t), searcher, types.ServerConfig{})

	w := get(t, srv.Router(), "/api/v1/articles?q=electrons")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.Less(t, strings.Index(w.Body.String(), catalystsID), strings.Index(w.Body.String(), superconductorsID))
	assert.Equal(t, 1, searcher.calls)
}

func TestIndexable(t *testing.T) {
	assert.True(t, indexable("量子點"))
	assert.True(t, indexable("laser physics"))
	assert.False(t, indexable("量子"))
	assert.False(t, indexable("量子點 光"))
	assert.False(t, indexable("   "))
}

func TestIndexSearch(t *testing.T) {
	t.Run("substring fallback", func(t *testing.T) {
		srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})
		body := get(t, srv.Router(), "/?q=RESISTANCE").Body.String()
		assert.Contains(t, body, "共 1 篇文章")
		assert.Contains(t, body, "<h2>Superconductors</h2>")
	})

	t.Run("index order", func(t *testing.T) {
		srv := newTestServer(t, writeFixtures(t), &stubSearcher{ids: []string{catalystsID, "missing", superconductorsID}, indexed: allFixtureIDs}, types.ServerConfig{})
		body := get(t, srv.Router(), "/?q=anything").Body.String()
		assert.Contains(t, body, "共 2 篇文章")
		assert.Contains(t, body, "<h2>Catalysts</h2>")
	})

	t.Run("index failure falls back", func(t *testing.T) {
		srv := newTestServer(t, writeFixtures(t), &stubSearcher{err: errors.New("db closed")}, types.ServerConfig{})
		body := get(t, srv.Router(), "/?q=light").Body.String()
		assert.Contains(t, body, "<h2>Photosynthesis</h2>")
	})
}

// quizClient posts quiz forms against a live test server, keeping the
// session cookie between requests and following the 303 back to the page.
type quizClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newQuizClient(t *testing.T, srv *Server) *quizClient {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &quizClient{t: t, base: ts.URL, client: &http.Client{Jar: jar}}
}

func (q *quizClient) post(id string, form url.Values) string {
	q.t.Helper()
	form.Set("subject", types.SubjectPhysics)
	resp, err := q.client.PostForm(q.base+"/articles/"+id+"/quiz", form)
	require.NoError(q.t, err)
	defer resp.Body.Close()
	require.Equal(q.t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(q.t, err)
	return string(body)
}

func TestQuizFlow(t *testing.T) {
	q := newQuizClient(t, newTestServer(t, writeFixtures(t), nil, types.ServerConfig{}))

	body := q.post(superconductorsID, url.Values{"action": {"submit"}})
	assert.Contains(t, body, noticeNothingSelected)

	body = q.post(superconductorsID, url.Values{"action": {"select"}, "option": {"1"}})
	assert.Contains(t, body, `value="1" checked`)
	assert.NotContains(t, body, "答錯囉")

	body = q.post(superconductorsID, url.Values{"action": {"submit"}})
	assert.Contains(t, body, "答錯囉！再試試看？")
	assert.Contains(t, body, "再試一次")

	body = q.post(superconductorsID, url.Values{"action": {"submit"}, "option": {"0"}})
	assert.Contains(t, body, noticeAlreadyGraded)
	assert.Contains(t, body, "答錯囉！再試試看？")

	body = q.post(superconductorsID, url.Values{"action": {"retry"}})
	assert.Contains(t, body, "送出答案")
	assert.NotContains(t, body, " checked")

	body = q.post(superconductorsID, url.Values{"action": {"submit"}, "option": {"0"}})
	assert.Contains(t, body, "答對了！Cooper pairs carry current without loss.")
}

func TestQuizBadOption(t *testing.T) {
	q := newQuizClient(t, newTestServer(t, writeFixtures(t), nil, types.ServerConfig{}))

	body := q.post(superconductorsID, url.Values{"action": {"submit"}, "option": {"7"}})
	assert.Contains(t, body, noticeBadOption)
}

func TestQuizUnknownArticle(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/articles/nope/quiz", strings.NewReader("action=submit"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuizRedirectTarget(t *testing.T) {
	srv := newTestServer(t, writeFixtures(t), nil, types.ServerConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/articles/"+superconductorsID+"/quiz",
		strings.NewReader("action=select&option=0&subject=physics&q=pair"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?article="+superconductorsID+"&q=pair&subject=physics", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))
}

func TestApplyAction(t *testing.T) {
	p := quiz.Payload{Options: []string{"(A) x", "(B) y"}, CorrectAnswer: "B"}

	a := quiz.NewAttempt("id")
	require.NoError(t, applyAction(&a, p, "select", "1", quiz.Grade))
	assert.Equal(t, quiz.Selected, a.State)

	require.NoError(t, applyAction(&a, p, "submit", "", quiz.Grade))
	assert.Equal(t, quiz.Correct, a.Outcome)

	assert.ErrorIs(t, applyAction(&a, p, "submit", "0", quiz.Grade), quiz.ErrAlreadyGraded)
	assert.Equal(t, 1, a.Option)

	require.NoError(t, applyAction(&a, p, "retry", "", quiz.Grade))
	assert.Equal(t, quiz.NewAttempt("id"), a)

	assert.ErrorIs(t, applyAction(&a, p, "select", "x", quiz.Grade), quiz.ErrOptionOutOfRange)
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "/", pageURL(articles.AllSubjects, "", "", ""))
	assert.Equal(t, "/?subject=physics", pageURL("physics", "", "", ""))
	assert.Equal(t, "/?article=a1&notice=%E5%97%A8", pageURL("", "", "a1", "嗨"))
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"one\nstill one", "two"}, paragraphs("one\nstill one\r\n\r\n\n\n  two  \n"))
	assert.Nil(t, paragraphs("  \n\n "))
}

func TestNewWithoutSecret(t *testing.T) {
	srv, err := New(writeFixtures(t), nil, types.ServerConfig{}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(t, srv.Router(), "/").Code)
}
