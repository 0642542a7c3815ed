// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns queued papers into stored articles by asking a
// language model for an article with an embedded quiz.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/queue"
	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

// Backend abstracts the language model so tests can supply a mock.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Indexer receives every stored article. The catalog implements it.
type Indexer interface {
	IndexArticle(ctx context.Context, a types.Article) error
}

// errEmptyResponse marks a blank model reply.
var errEmptyResponse = errors.New("model returned no content")

// BatchSummary holds counts from one pass over the queue.
type BatchSummary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Total returns the number of queue files visited.
func (s BatchSummary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// HasFailures reports whether any queue file failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Processor consumes the queue.
type Processor struct {
	Backend Backend
	Queue   *queue.Queue
	Store   *articles.Store
	Indexer Indexer
	Config  types.GenerationConfig
}

// now and backoffBase are package vars so tests can pin time and skip sleeps.
var (
	now         = time.Now
	backoffBase = 2 * time.Second
)

// ProcessQueue visits every pending queue file once, in path order, pausing
// ItemDelay between files. Per-file problems are counted, never returned.
func (p *Processor) ProcessQueue(ctx context.Context, w io.Writer) (BatchSummary, error) {
	files, err := p.Queue.Pending()
	if err != nil {
		return BatchSummary{}, err
	}
	if len(files) == 0 {
		fmt.Fprintln(w, "queue is empty")
		return BatchSummary{}, nil
	}
	fmt.Fprintf(w, "processing %d queued paper(s)\n", len(files))

	var summary BatchSummary
	for i, path := range files {
		if i > 0 {
			if err := Sleep(ctx, p.Config.ItemDelay); err != nil {
				return summary, err
			}
		}
		switch p.ProcessFile(ctx, path, w) {
		case Processed:
			summary.Processed++
		case Skipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	fmt.Fprintf(w, "\nprocessed: %d, skipped: %d, failed: %d\n",
		summary.Processed, summary.Skipped, summary.Failed)
	return summary, nil
}

// Result is the fate of one queue file.
type Result int

const (
	Processed Result = iota
	Skipped
	Failed
)

// ProcessFile generates and stores the article for one queue file. The
// queue file is removed only after the article is written.
func (p *Processor) ProcessFile(ctx context.Context, path string, w io.Writer) Result {
	paper, err := p.Queue.Read(path)
	if err != nil {
		fmt.Fprintf(w, "failed  %s: %v\n", path, err)
		return Failed
	}
	fmt.Fprintf(w, "generating %s (%s)\n", paper.Title, types.SubjectLabel(paper.Subject))

	prompt, err := RenderPrompt(paper)
	if err != nil {
		fmt.Fprintf(w, "failed  %s: rendering prompt: %v\n", path, err)
		return Failed
	}

	content, err := callWithRetry(ctx, p.Backend, prompt, p.Config.MaxRetries)
	if err != nil {
		fmt.Fprintf(w, "skipped %s: %v\n", paper.Title, err)
		return Skipped
	}

	a := articles.New(paper, content, now())
	if ext, _, err := quiz.Parse(content); err != nil {
		fmt.Fprintf(w, "warning: %s: %v\n", a.ID, err)
	} else if !ext.Found {
		fmt.Fprintf(w, "warning: %s: no quiz block in reply\n", a.ID)
	}

	out, err := p.Store.Write(a)
	if err != nil {
		fmt.Fprintf(w, "failed  %s: %v\n", path, err)
		return Failed
	}

	if err := p.Queue.Remove(path); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}
	if p.Indexer != nil {
		if err := p.Indexer.IndexArticle(ctx, a); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
		}
	}

	fmt.Fprintf(w, "processed %s\n", out)
	return Processed
}

// callWithRetry calls the backend with exponential backoff. A blank reply
// counts as a failed attempt.
func callWithRetry(ctx context.Context, backend Backend, prompt string, maxRetries int) (string, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			if err := Sleep(ctx, backoff); err != nil {
				return "", err
			}
		}

		text, err := backend.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyResponse
		}
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
