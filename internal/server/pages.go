// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

// Notices shown above the quiz after a form post.
const (
	noticeNothingSelected = "請先選擇一個選項喔！"
	noticeAlreadyGraded   = "已經作答過了，按「再試一次」重新作答。"
	noticeBadOption       = "找不到這個選項。"
	noticeNoQuiz          = "這篇文章沒有測驗。"
)

var templateFuncs = template.FuncMap{
	"paragraphs": paragraphs,
	"label":      types.SubjectLabel,
	"emoji":      types.SubjectEmoji,
}

type subjectLink struct {
	Name   string
	Label  string
	Href   string
	Active bool
}

type listItem struct {
	ID        string
	Title     string
	Emoji     string
	Published string
	Href      string
	Active    bool
}

type optionView struct {
	Index   int
	Text    string
	Checked bool
}

type quizView struct {
	Question      string
	Options       []optionView
	Graded        bool
	Correct       bool
	CorrectAnswer string
	Explanation   string
}

type quizErrorView struct {
	Reason string
	Text   string
}

type articleView struct {
	ID          string
	Title       string
	Subject     string
	Published   string
	ProcessedAt string
	Source      string
	URL         string
	Body        string
	Quiz        *quizView
	QuizError   *quizErrorView
}

type pageData struct {
	Subjects []subjectLink
	Subject  string
	Query    string
	Count    int
	Items    []listItem
	Article  *articleView
	Notice   string
	Empty    bool
	LoadErr  string
}

// handleIndex renders the sidebar list and the selected article.
func (s *Server) handleIndex(c *gin.Context) {
	subject := c.DefaultQuery("subject", articles.AllSubjects)
	query := strings.TrimSpace(c.Query("q"))

	data := pageData{Subject: subject, Query: query, Notice: c.Query("notice")}

	list, err := s.loadArticles()
	if err != nil {
		data.LoadErr = err.Error()
	}
	data.Empty = len(list) == 0
	data.Subjects = subjectLinks(list, subject, query)

	filtered := s.search(c.Request.Context(), articles.Filter(list, subject), query)
	data.Count = len(filtered)

	current := c.Query("article")
	if _, findErr := articles.Find(filtered, current); findErr != nil && len(filtered) > 0 {
		current = filtered[0].ID
	}

	for _, a := range filtered {
		data.Items = append(data.Items, listItem{
			ID:        a.ID,
			Title:     a.Meta.Title,
			Emoji:     types.SubjectEmoji(a.SubjectCategory),
			Published: a.Meta.Published,
			Href:      pageURL(subject, query, a.ID, ""),
			Active:    a.ID == current,
		})
		if a.ID == current {
			_, attempt := s.attempt(c.Request, a.ID)
			data.Article = newArticleView(a, attempt)
		}
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// handleQuiz applies one form action (select, submit or retry) to the
// reader's attempt and redirects back to the article.
func (s *Server) handleQuiz(c *gin.Context) {
	id := c.Param("id")
	subject := c.DefaultPostForm("subject", articles.AllSubjects)
	query := c.PostForm("q")

	list, _ := s.loadArticles()
	a, err := articles.Find(list, id)
	if err != nil {
		c.String(http.StatusNotFound, "article not found")
		return
	}

	notice := ""
	_, payload, _ := quiz.Parse(a.Content)
	if payload == nil {
		notice = noticeNoQuiz
	} else {
		sess, attempt := s.attempt(c.Request, id)
		if err := applyAction(&attempt, *payload, c.PostForm("action"), c.PostForm("option"), s.grade); err != nil {
			notice = noticeFor(err)
		}
		if err := s.saveAttempt(c, sess, attempt); err != nil {
			s.log.Error("saving session", "article", id, "error", err)
		}
	}

	c.Redirect(http.StatusSeeOther, pageURL(subject, query, id, notice))
}

// applyAction drives the attempt state machine from form values. A submit
// carrying an option selects it first, so a single click grades.
func applyAction(a *quiz.Attempt, p quiz.Payload, action, option string, grade quiz.Grader) error {
	if action == "retry" {
		a.Reset()
		return nil
	}
	if option != "" && a.State != quiz.Graded {
		i, err := strconv.Atoi(option)
		if err != nil {
			return quiz.ErrOptionOutOfRange
		}
		if err := a.Select(p, i); err != nil {
			return err
		}
	}
	if action == "submit" {
		_, err := a.Submit(p, grade)
		return err
	}
	return nil
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, quiz.ErrNothingSelected):
		return noticeNothingSelected
	case errors.Is(err, quiz.ErrAlreadyGraded):
		return noticeAlreadyGraded
	default:
		return noticeBadOption
	}
}

func newArticleView(a types.Article, attempt quiz.Attempt) *articleView {
	ext, payload, err := quiz.Parse(a.Content)
	v := &articleView{
		ID:          a.ID,
		Title:       a.Meta.Title,
		Subject:     strings.ToUpper(a.SubjectCategory),
		Published:   a.Meta.Published,
		ProcessedAt: a.ProcessedAt,
		Source:      a.Meta.Source,
		URL:         a.Meta.URL,
		Body:        ext.Article,
	}

	var mqe *quiz.MalformedQuizError
	switch {
	case errors.As(err, &mqe):
		v.QuizError = &quizErrorView{Reason: mqe.Reason, Text: mqe.Text}
	case payload != nil:
		v.Quiz = newQuizView(*payload, attempt)
	}
	return v
}

func newQuizView(p quiz.Payload, attempt quiz.Attempt) *quizView {
	q := &quizView{
		Question:      p.Question,
		Graded:        attempt.State == quiz.Graded,
		Correct:       attempt.State == quiz.Graded && attempt.Outcome == quiz.Correct,
		CorrectAnswer: strings.ToUpper(strings.TrimSpace(p.CorrectAnswer)),
		Explanation:   p.Explanation,
	}
	for i, text := range p.Options {
		q.Options = append(q.Options, optionView{Index: i, Text: text, Checked: i == attempt.Option})
	}
	return q
}

func subjectLinks(list []types.Article, active, query string) []subjectLink {
	links := []subjectLink{{
		Name:   articles.AllSubjects,
		Label:  "全部顯示",
		Href:   pageURL(articles.AllSubjects, query, "", ""),
		Active: active == articles.AllSubjects || active == "",
	}}
	for _, name := range articles.Subjects(list) {
		links = append(links, subjectLink{
			Name:   name,
			Label:  types.SubjectLabel(name),
			Href:   pageURL(name, query, "", ""),
			Active: name == active,
		})
	}
	return links
}

func pageURL(subject, query, article, notice string) string {
	v := url.Values{}
	if subject != "" && subject != articles.AllSubjects {
		v.Set("subject", subject)
	}
	if query != "" {
		v.Set("q", query)
	}
	if article != "" {
		v.Set("article", article)
	}
	if notice != "" {
		v.Set("notice", notice)
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// paragraphs splits article prose on blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// substringSearch is the fallback when no index is available.
func substringSearch(list []types.Article, q string) []types.Article {
	needle := strings.ToLower(q)
	var out []types.Article
	for _, a := range list {
		if strings.Contains(strings.ToLower(a.Meta.Title), needle) ||
			strings.Contains(strings.ToLower(a.Content), needle) {
			out = append(out, a)
		}
	}
	return out
}
