// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/science-digest/internal/pipeline"
	"github.com/pdiddy/science-digest/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch a batch of papers and process the queue",
	Long: `Run makes --batch-size fetch attempts spaced by fetch.interval. When at least
one paper was queued it waits generation.settle_delay and processes the whole
queue, then prints a summary.

With --serve the web UI starts after the batch, even when the batch had
failures.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("batch-size", 0, "fetch attempts in this run (default fetch.batch_size)")
	runCmd.Flags().Bool("serve", false, "start the web UI after the batch")
	runCmd.Flags().Bool("no-color", false, "disable colored summary output")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if n, _ := cmd.Flags().GetInt("batch-size"); n > 0 {
		cfg.Fetch.BatchSize = n
	}
	serve, _ := cmd.Flags().GetBool("serve")
	noColor, _ := cmd.Flags().GetBool("no-color")

	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer cat.Close()

	f, err := newFetcher(cfg, cat)
	if err != nil {
		return err
	}
	p, err := newProcessor(cfg, cat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	summary, runErr := pipeline.Run(ctx, f, p, pipeline.ConfigFrom(cfg), os.Stdout)
	fmt.Println()
	fmt.Println(report.RenderRunSummary(summary, noColor))

	if serve && ctx.Err() == nil {
		return serveUI(ctx, cfg, cat)
	}
	if runErr != nil {
		if errors.Is(runErr, pipeline.ErrNothingFetched) {
			return fmt.Errorf("%w in %d attempt(s)", runErr, summary.Attempts)
		}
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("run %s completed with failures", summary.RunID)
	}
	return nil
}
