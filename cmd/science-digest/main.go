// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the science-digest CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/science-digest/internal/logger"
	"github.com/pdiddy/science-digest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets secrets.Set

// log writes to stderr; its level is set from --log-level before any
// subcommand runs.
var log = logger.NewLogger("info")

// rootCmd is the base command for the science-digest CLI.
var rootCmd = &cobra.Command{
	Use:   "science-digest",
	Short: "Turn recent research abstracts into quizzed science articles",
	Long: `science-digest fetches recent abstracts from arXiv and PubMed for topics
drawn from a high-school syllabus, asks Gemini to rewrite each one as a short
article with an embedded multiple-choice quiz, and serves the results in a
browser.

The stages are subcommands: fetch fills the queue, process turns queued papers
into articles, run does both in one batch, and serve starts the web UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetLevel(viper.GetString(keyLogLevel))

		s, err := secrets.Load(viper.GetString(keySecretsDir), log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", names)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./science-digest.yaml or ~/.config/science-digest/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag(keyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("science-digest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "science-digest"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("SCIENCE_DIGEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
