// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/science-digest/internal/httputil"
	"github.com/pdiddy/science-digest/internal/logger"
	"github.com/pdiddy/science-digest/internal/syllabus"
	"github.com/pdiddy/science-digest/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv API for the newest submissions matching a keyword.
type ArxivBackend struct {
	Client    *http.Client
	UserAgent string
	Log       *logger.Logger
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return syllabus.SourceArxiv }

// Fetch searches titles and abstracts for the topic keyword, newest first.
func (b *ArxivBackend) Fetch(ctx context.Context, topic syllabus.Topic, max int) ([]types.Paper, error) {
	params := url.Values{}
	params.Set("search_query", buildArxivQuery(topic.Keyword))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(max))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0, b.Log)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var papers []types.Paper
	for _, entry := range feed.Entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			continue
		}
		p := paperFromTopic(topic, types.SourceArxiv)
		p.Title = strings.Join(strings.Fields(entry.Title), " ")
		p.Summary = strings.TrimSpace(strings.ReplaceAll(entry.Summary, "\n", " "))
		p.URL = id
		if t, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published)); parseErr == nil {
			p.Published = t.Format("2006-01-02")
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// buildArxivQuery matches the keyword as a phrase in the abstract or the title.
func buildArxivQuery(keyword string) string {
	kw := strings.ReplaceAll(strings.TrimSpace(keyword), `"`, "")
	return fmt.Sprintf(`abs:"%s" OR ti:"%s"`, kw, kw)
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
}
