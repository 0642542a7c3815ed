// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/science-digest/internal/articles"
	"github.com/pdiddy/science-digest/internal/server"
	"github.com/pdiddy/science-digest/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the article browser and quiz UI",
	Long: `Serve starts the web UI over the articles directory. Articles are re-read
on every request, so a concurrent process run shows up without a restart.

The JSON API lives under /api/v1: health, articles (list, filter with
?subject= and ?q=), articles/:id, and articles/:id/grade.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		cat, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		defer cat.Close()

		return serveUI(cmd.Context(), cfg, cat)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

// serveUI blocks until ctx is cancelled.
func serveUI(ctx context.Context, cfg types.PipelineConfig, searcher server.Searcher) error {
	store := articles.NewStore(cfg.Paths.ArticlesDir)
	store.Warn = os.Stderr

	srv, err := server.New(store, searcher, cfg.Server, log.With("component", "server"))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
