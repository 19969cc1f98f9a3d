// Package export writes reports over the loaded trial set. Every export runs
// locally against data the dashboard already holds, so a report reflects
// exactly what the user was looking at.
package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/model"
)

// maxSponsorRows caps the sponsor table so a many-sponsor dataset does not
// swamp the report.
const maxSponsorRows = 10

// Markdown renders the report document. Kept separate from the file write so
// callers can embed the report elsewhere.
func Markdown(trials []model.Trial, snap *model.AnalyticsSnapshot) string {
	var sb strings.Builder

	sb.WriteString("# Clinical Trial PTS Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04"))

	if snap != nil {
		s := snap.Summary
		sb.WriteString("## Summary\n\n")
		fmt.Fprintf(&sb, "- **Trials:** %d\n", s.TotalTrials)
		fmt.Fprintf(&sb, "- **Average PTS:** %s\n", analytics.FormatScore(s.AveragePTS))
		fmt.Fprintf(&sb, "- **High risk (PTS < %.0f):** %d\n", analytics.DefaultThresholds.High, s.HighRiskTrials)
		fmt.Fprintf(&sb, "- **Low risk (PTS >= %.0f):** %d\n", analytics.DefaultThresholds.Low, s.LowRiskTrials)
		sb.WriteString("\n")

		if len(snap.PTSDistribution) > 0 {
			sb.WriteString("## PTS Distribution\n\n")
			sb.WriteString("| Range | Trials |\n|---|---|\n")
			for _, b := range snap.PTSDistribution {
				fmt.Fprintf(&sb, "| %s | %d |\n", b.Range, b.Count)
			}
			sb.WriteString("\n")
		}

		if len(snap.BySponsor) > 0 {
			sb.WriteString("## Top Sponsors\n\n")
			sb.WriteString("| Sponsor | Trials | Avg PTS | Success Rate |\n|---|---|---|---|\n")
			for i, sp := range snap.BySponsor {
				if i == maxSponsorRows {
					break
				}
				fmt.Fprintf(&sb, "| %s | %d | %s | %s |\n",
					sp.Sponsor, sp.Trials, analytics.FormatScore(sp.AvgPTS), analytics.FormatPercent(sp.SuccessRate))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("## Trials\n\n")
	if len(trials) == 0 {
		sb.WriteString("_No trials loaded._\n")
		return sb.String()
	}

	sb.WriteString("| ID | Title | Sponsor | Area | Phase | Status | PTS | Risk |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, t := range trials {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			t.ID, escapePipes(t.Title), escapePipes(t.Sponsor), t.TherapeuticArea,
			t.Phase, t.Status, analytics.FormatScore(t.PTS), analytics.DefaultThresholds.Band(t.PTS))
	}

	return sb.String()
}

// SaveMarkdownToFile writes the markdown report to path.
func SaveMarkdownToFile(trials []model.Trial, snap *model.AnalyticsSnapshot, path string) error {
	if err := os.WriteFile(path, []byte(Markdown(trials, snap)), 0644); err != nil {
		return fmt.Errorf("writing markdown report: %w", err)
	}
	return nil
}

// escapePipes keeps free-text fields from breaking the table syntax.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
