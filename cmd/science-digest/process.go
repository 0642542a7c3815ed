// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/generate"
	"github.com/pdiddy/science-digest/internal/queue"
	"github.com/pdiddy/science-digest/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate articles for every queued paper",
	Long: `Process sends each queued paper to Gemini, stores the returned article and
quiz under articles/<subject>/, removes the queue file, and indexes the
article for search.

A paper whose generation fails stays in the queue for the next run. Exits
non-zero when any queue file could not be read or any article could not be
written.`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

// newProcessor wires the Gemini backend, the stores, and the indexer.
func newProcessor(cfg types.PipelineConfig, indexer generate.Indexer) (*generate.Processor, error) {
	backend, err := generate.NewGeminiBackend(cfg.Generation.AIConfig)
	if err != nil {
		return nil, err
	}
	store := articles.NewStore(cfg.Paths.ArticlesDir)
	store.Warn = os.Stderr
	return &generate.Processor{
		Backend: backend,
		Queue:   queue.New(cfg.Paths.QueueDir),
		Store:   store,
		Indexer: indexer,
		Config:  cfg.Generation,
	}, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer cat.Close()

	p, err := newProcessor(cfg, cat)
	if err != nil {
		return err
	}

	summary, err := p.ProcessQueue(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d queued paper(s) failed", summary.Failed, summary.Total())
	}
	return nil
}
