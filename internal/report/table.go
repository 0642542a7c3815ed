// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report formats articles and run results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pdiddy/science-digest/pkg/types"
)

// MaxTitleWidth is the display width titles are cut to in the article table.
var MaxTitleWidth = 48

// WriteArticleTable writes one padded row per article. Widths are measured
// in terminal cells so CJK titles line up.
func WriteArticleTable(w io.Writer, list []types.Article) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No articles found.")
		return err
	}

	rows := [][]string{{"ID", "Subject", "Published", "Source", "Title"}}
	for _, a := range list {
		rows = append(rows, []string{
			a.ID,
			types.SubjectLabel(a.SubjectCategory),
			a.Meta.Published,
			a.Meta.Source,
			runewidth.Truncate(a.Meta.Title, MaxTitleWidth, "..."),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for r, row := range rows {
		if err := writeRow(w, row, widths); err != nil {
			return err
		}
		if r == 0 {
			total := len(widths) - 1
			for _, n := range widths {
				total += n + 1
			}
			if _, err := fmt.Fprintln(w, strings.Repeat("-", total)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d article(s)\n", len(list))
	return err
}

func writeRow(w io.Writer, row []string, widths []int) error {
	var sb strings.Builder
	for i, cell := range row {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(cell)
		// Last column is not padded.
		if i < len(row)-1 {
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
		}
	}
	_, err := fmt.Fprintln(w, sb.String())
	return err
}
