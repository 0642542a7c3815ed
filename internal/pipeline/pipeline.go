// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a full batch: repeated fetch attempts followed by
// one pass of article generation over the queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/science-digest/internal/generate"
	"github.com/pdiddy/science-digest/pkg/types"
)

// ErrNothingFetched means every fetch attempt failed, so processing was not started.
var ErrNothingFetched = errors.New("no papers fetched")

// Fetcher queues one paper per call.
type Fetcher interface {
	FetchOne(ctx context.Context, w io.Writer) (types.Paper, string, error)
}

// Processor consumes the queue once.
type Processor interface {
	ProcessQueue(ctx context.Context, w io.Writer) (generate.BatchSummary, error)
}

// Config holds batch sizing and pacing.
type Config struct {
	BatchSize   int
	Interval    time.Duration
	SettleDelay time.Duration
}

// ConfigFrom reads the run settings out of the stage configs.
func ConfigFrom(cfg types.PipelineConfig) Config {
	return Config{
		BatchSize:   cfg.Fetch.BatchSize,
		Interval:    cfg.Fetch.Interval,
		SettleDelay: cfg.Generation.SettleDelay,
	}
}

// Summary reports one run.
type Summary struct {
	RunID       string
	Started     time.Time
	Finished    time.Time
	Attempts    int
	Fetched     int
	FetchFailed int
	Batch       generate.BatchSummary
}

// Elapsed returns the wall time of the run.
func (s Summary) Elapsed() time.Duration {
	return s.Finished.Sub(s.Started)
}

// HasFailures reports whether any fetch attempt or queue item failed.
func (s Summary) HasFailures() bool {
	return s.FetchFailed > 0 || s.Batch.HasFailures()
}

// Run makes BatchSize sequential fetch attempts spaced by Interval. When at
// least one paper was queued it waits SettleDelay and processes the queue.
func Run(ctx context.Context, f Fetcher, p Processor, cfg Config, w io.Writer) (Summary, error) {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 20
	}
	s := Summary{RunID: uuid.NewString(), Started: time.Now()}

	fmt.Fprintf(w, "run %s: fetching %d paper(s)\n", s.RunID, batch)
	for i := 0; i < batch; i++ {
		if i > 0 {
			if err := generate.Sleep(ctx, cfg.Interval); err != nil {
				s.Finished = time.Now()
				return s, err
			}
		}
		s.Attempts++
		fmt.Fprintf(w, "--- %d / %d ---\n", i+1, batch)
		if _, _, err := f.FetchOne(ctx, w); err != nil {
			if ctx.Err() != nil {
				s.Finished = time.Now()
				return s, ctx.Err()
			}
			fmt.Fprintf(w, "failed  attempt %d: %v\n", i+1, err)
			s.FetchFailed++
			continue
		}
		s.Fetched++
	}
	fmt.Fprintf(w, "fetched: %d, failed: %d\n", s.Fetched, s.FetchFailed)

	if s.Fetched == 0 {
		s.Finished = time.Now()
		return s, ErrNothingFetched
	}

	if err := generate.Sleep(ctx, cfg.SettleDelay); err != nil {
		s.Finished = time.Now()
		return s, err
	}

	summary, err := p.ProcessQueue(ctx, w)
	s.Batch = summary
	s.Finished = time.Now()
	if err != nil {
		return s, fmt.Errorf("processing queue: %w", err)
	}
	return s, nil
}
