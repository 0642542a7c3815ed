// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/science-digest/internal/pipeline"
)

// RenderRunSummary renders the closing block of a run.
func RenderRunSummary(s pipeline.Summary, noColor bool) string {
	header := stylize(fmt.Sprintf("Run %s | Elapsed: %s", s.RunID, s.Elapsed().Round(100*time.Millisecond)),
		noColor, lipgloss.Color("33"))

	fetch := fmt.Sprintf("Fetch    attempts: %d  queued: %d  failed: %d", s.Attempts, s.Fetched, s.FetchFailed)
	process := fmt.Sprintf("Generate processed: %d  skipped: %d  failed: %d",
		s.Batch.Processed, s.Batch.Skipped, s.Batch.Failed)

	status, color := "OK", lipgloss.Color("42")
	switch {
	case s.Fetched == 0:
		status, color = "NOTHING FETCHED", lipgloss.Color("196")
	case s.HasFailures():
		status, color = "COMPLETED WITH FAILURES", lipgloss.Color("220")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		stylize(fetch, noColor, lipgloss.Color("242")),
		stylize(process, noColor, lipgloss.Color("242")),
		stylize(status, noColor, color),
	)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
