package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/model"
)

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Risk bands
	RiskHigh   lipgloss.AdaptiveColor
	RiskMedium lipgloss.AdaptiveColor
	RiskLow    lipgloss.AdaptiveColor

	// Trial status
	Recruiting lipgloss.AdaptiveColor
	Active     lipgloss.AdaptiveColor
	Completed  lipgloss.AdaptiveColor
	Terminated lipgloss.AdaptiveColor

	// Force plot
	Positive lipgloss.AdaptiveColor
	Negative lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
// Light mode colors are darkened for WCAG AA contrast.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		RiskHigh:   lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red
		RiskMedium: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange
		RiskLow:    lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green

		Recruiting: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Active:     lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan
		Completed:  lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Terminated: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red

		Positive: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green, raises PTS
		Negative: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red, lowers PTS

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Success:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	return t
}

// RiskColor maps a PTS score to its band color using the standard
// thresholds.
func (t Theme) RiskColor(pts float64) lipgloss.AdaptiveColor {
	switch analytics.DefaultThresholds.Band(pts) {
	case "high":
		return t.RiskHigh
	case "low":
		return t.RiskLow
	default:
		return t.RiskMedium
	}
}

func (t Theme) StatusColor(s model.Status) lipgloss.AdaptiveColor {
	switch s {
	case model.StatusRecruiting:
		return t.Recruiting
	case model.StatusActive:
		return t.Active
	case model.StatusCompleted:
		return t.Completed
	case model.StatusTerminated:
		return t.Terminated
	default:
		return t.Subtext
	}
}

// StatusIcon returns a fixed-width glyph per status. Plain geometric shapes
// render at one cell everywhere; emoji with variation selectors do not.
func (t Theme) StatusIcon(s model.Status) (string, lipgloss.AdaptiveColor) {
	switch s {
	case model.StatusRecruiting:
		return "○", t.Recruiting
	case model.StatusActive:
		return "◉", t.Active
	case model.StatusCompleted:
		return "●", t.Completed
	case model.StatusTerminated:
		return "✖", t.Terminated
	default:
		return "•", t.Subtext
	}
}
