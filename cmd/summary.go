package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/migrate"
)

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	summaryTitle = lipgloss.NewStyle().Bold(true)
	summaryOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	summaryWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	summaryBad   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// renderSummary formats the end-of-run report.
func renderSummary(stats *migrate.Stats, failedAssets int) string {
	s := stats.Snapshot()

	lines := []string{
		summaryTitle.Render("Migration summary"),
		"",
		fmt.Sprintf("Pages:        %d", s.Total),
		summaryOK.Render(fmt.Sprintf("Migrated:     %d (%d records)", s.Migrated, s.SectionsCreated)),
		fmt.Sprintf("Reused:       %d", s.Reused),
	}
	failedLine := fmt.Sprintf("Failed:       %d", s.Failed)
	if s.Failed > 0 {
		failedLine = summaryBad.Render(failedLine)
	}
	lines = append(lines, failedLine)

	lines = append(lines, fmt.Sprintf("Associations: %d ok, %d failed", s.Associations, s.AssociationErrs))
	if failedAssets > 0 {
		lines = append(lines, summaryWarn.Render(fmt.Sprintf("Assets:       %d failed", failedAssets)))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Elapsed:      %s (%.1f pages/min)", stats.Elapsed().Round(time.Second), stats.Throughput()),
	)

	return summaryBox.Render(strings.Join(lines, "\n"))
}
