// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/science-digest/internal/articles"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the articles directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		cat, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		defer cat.Close()

		store := articles.NewStore(cfg.Paths.ArticlesDir)
		store.Warn = os.Stderr
		list, err := store.Load()
		if err != nil {
			return err
		}

		summary, err := cat.Reindex(cmd.Context(), list, os.Stdout)
		if err != nil {
			return err
		}
		papers, indexed, err := cat.Counts(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("catalog: %d paper(s) fetched, %d article(s) indexed\n", papers, indexed)
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d article(s) failed to index", summary.Failed, summary.Total())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
