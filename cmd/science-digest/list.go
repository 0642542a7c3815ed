// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated articles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		cfg := loadConfig()

		store := articles.NewStore(cfg.Paths.ArticlesDir)
		store.Warn = os.Stderr
		list, err := store.Load()
		if err != nil {
			return err
		}
		return report.WriteArticleTable(os.Stdout, articles.Filter(list, subject))
	},
}

func init() {
	listCmd.Flags().String("subject", articles.AllSubjects, "only list this subject")
	rootCmd.AddCommand(listCmd)
}
