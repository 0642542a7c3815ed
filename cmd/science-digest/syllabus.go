// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/science-digest/internal/syllabus"
)

var syllabusCmd = &cobra.Command{
	Use:   "syllabus",
	Short: "Print the syllabus in use as YAML",
	Long: `Syllabus prints the configured syllabus (paths.syllabus) or the built-in one.
Use --out to write a starting point for a custom syllabus file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		s, err := syllabus.Load(loadConfig().Paths.Syllabus)
		if err != nil {
			return err
		}
		data, err := s.Marshal()
		if err != nil {
			return err
		}
		if out == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
		return nil
	},
}

func init() {
	syllabusCmd.Flags().String("out", "", "write to this file instead of stdout")
	rootCmd.AddCommand(syllabusCmd)
}
