// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch picks a syllabus topic, searches the matching paper source,
// and queues one new paper per attempt.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/pdiddy/science-digest/internal/logger"
	"github.com/pdiddy/science-digest/internal/queue"
	"github.com/pdiddy/science-digest/internal/syllabus"
	"github.com/pdiddy/science-digest/pkg/types"
)

var (
	// ErrNoPapers means the search returned nothing new for the topic.
	ErrNoPapers = errors.New("no new papers found")

	// ErrUnknownSource means a syllabus subject names a source with no backend.
	ErrUnknownSource = errors.New("unknown paper source")
)

// Backend searches a single paper source.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, topic syllabus.Topic, max int) ([]types.Paper, error)
}

// Ledger remembers which paper URLs were already queued.
type Ledger interface {
	Seen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, paper types.Paper) error
}

// Fetcher runs single fetch attempts.
type Fetcher struct {
	Syllabus *syllabus.Syllabus
	Backends map[string]Backend
	Queue    *queue.Queue
	Ledger   Ledger
	Rand     *rand.Rand
	Config   types.FetchConfig
	Log      *logger.Logger
}

// NewFetcher wires the arXiv and PubMed backends with one shared HTTP client.
func NewFetcher(s *syllabus.Syllabus, q *queue.Queue, ledger Ledger, cfg types.FetchConfig, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Discard()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	return &Fetcher{
		Syllabus: s,
		Backends: map[string]Backend{
			syllabus.SourceArxiv:  &ArxivBackend{Client: client, UserAgent: cfg.UserAgent, Log: log},
			syllabus.SourcePubMed: &PubMedBackend{Client: client, UserAgent: cfg.UserAgent, Email: cfg.NCBIEmail, APIKey: cfg.NCBIAPIKey, Log: log},
		},
		Queue:  q,
		Ledger: ledger,
		Rand:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		Config: cfg,
		Log:    log,
	}
}

// FetchOne picks a topic, searches its source, and queues the first paper
// the ledger has not seen. Progress lines go to w.
func (f *Fetcher) FetchOne(ctx context.Context, w io.Writer) (types.Paper, string, error) {
	topic := f.Syllabus.Pick(f.Rand)
	fmt.Fprintf(w, "fetching %s | %s | %s\n", topic.Subject, topic.Chapter, topic.Keyword)

	backend, ok := f.Backends[topic.Source]
	if !ok {
		return types.Paper{}, "", fmt.Errorf("%w: %q (subject %s)", ErrUnknownSource, topic.Source, topic.Subject)
	}

	max := f.Config.MaxResults
	if max <= 0 {
		max = 3
	}
	papers, err := backend.Fetch(ctx, topic, max)
	if err != nil {
		return types.Paper{}, "", fmt.Errorf("%s search for %q: %w", backend.Name(), topic.Keyword, err)
	}

	paper, err := f.firstUnseen(ctx, papers)
	if err != nil {
		return types.Paper{}, "", fmt.Errorf("%s search for %q: %w", backend.Name(), topic.Keyword, err)
	}

	path, err := f.Queue.Enqueue(paper)
	if err != nil {
		return types.Paper{}, "", err
	}
	if f.Ledger != nil {
		if err := f.Ledger.MarkSeen(ctx, paper); err != nil {
			fmt.Fprintf(w, "warning: recording %s: %v\n", paper.URL, err)
		}
	}
	fmt.Fprintf(w, "queued %s\n", path)
	return paper, path, nil
}

func (f *Fetcher) firstUnseen(ctx context.Context, papers []types.Paper) (types.Paper, error) {
	for _, p := range papers {
		if f.Ledger == nil {
			return p, nil
		}
		seen, err := f.Ledger.Seen(ctx, p.URL)
		if err != nil {
			return types.Paper{}, fmt.Errorf("checking ledger: %w", err)
		}
		if !seen {
			return p, nil
		}
		f.logger().Debug("skipping already queued paper", "url", p.URL)
	}
	return types.Paper{}, ErrNoPapers
}

// logger returns Log, or a discarding logger for a Fetcher built without one.
func (f *Fetcher) logger() *logger.Logger {
	if f.Log == nil {
		return logger.Discard()
	}
	return f.Log
}

// paperFromTopic fills the syllabus mapping fields of a fetched paper.
func paperFromTopic(topic syllabus.Topic, source string) types.Paper {
	return types.Paper{
		Source:         source,
		MappingChapter: topic.Chapter,
		MappingKeyword: topic.Keyword,
		Subject:        topic.Subject,
	}
}
