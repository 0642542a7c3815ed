// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/science-digest/internal/fetch"
	"github.com/pdiddy/science-digest/internal/generate"
	"github.com/pdiddy/science-digest/internal/queue"
	"github.com/pdiddy/science-digest/internal/syllabus"
	"github.com/pdiddy/science-digest/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Queue recent abstracts for random syllabus topics",
	Long: `Fetch picks a random subject, chapter and keyword from the syllabus, searches
the subject's source (arXiv or PubMed) for the newest matching abstracts, and
queues the first one not fetched before under raw_queue/<subject>/.

Each attempt is independent: a failed search is reported and the next attempt
proceeds.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("count", 1, "number of fetch attempts")
	rootCmd.AddCommand(fetchCmd)
}

// newFetcher wires the syllabus, queue and catalog ledger.
func newFetcher(cfg types.PipelineConfig, ledger fetch.Ledger) (*fetch.Fetcher, error) {
	s, err := syllabus.Load(cfg.Paths.Syllabus)
	if err != nil {
		return nil, err
	}
	return fetch.NewFetcher(s, queue.New(cfg.Paths.QueueDir), ledger, cfg.Fetch, log), nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	cfg := loadConfig()

	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer cat.Close()

	f, err := newFetcher(cfg, cat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	w := os.Stdout
	var fetched, failed int
	for i := 1; i <= count; i++ {
		if i > 1 {
			if err := generate.Sleep(ctx, cfg.Fetch.Interval); err != nil {
				return err
			}
		}
		if _, _, err := f.FetchOne(ctx, w); err != nil {
			fmt.Fprintf(w, "failed  attempt %d: %v\n", i, err)
			failed++
			continue
		}
		fetched++
	}

	fmt.Fprintf(w, "\nqueued: %d, failed: %d\n", fetched, failed)
	if fetched == 0 && count > 0 {
		return fmt.Errorf("no papers queued in %d attempt(s)", count)
	}
	return nil
}
