package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
)

// sponsorPanel identifies one of the insight panels on the sponsors tab.
type sponsorPanel int

const (
	panelSponsors sponsorPanel = iota
	panelAreas
	sponsorPanelCount
)

// sponsorsModel shows the server-side rollups: sponsors ranked by average
// PTS and the therapeutic-area mix. Selection state is per panel.
type sponsorsModel struct {
	theme   Theme
	focused sponsorPanel
	sel     [sponsorPanelCount]int

	width  int
	height int
}

func newSponsorsModel(theme Theme) sponsorsModel {
	return sponsorsModel{theme: theme}
}

func (s *sponsorsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (m *Model) handleSponsorsKey(msg tea.KeyMsg) tea.Cmd {
	s := &m.sponsors

	var rows int
	switch s.focused {
	case panelSponsors:
		rows = len(m.agg.SponsorTable())
	case panelAreas:
		rows = len(m.agg.Areas())
	}

	switch msg.String() {
	case "h", "left":
		s.focused = (s.focused + sponsorPanelCount - 1) % sponsorPanelCount
	case "l", "right":
		s.focused = (s.focused + 1) % sponsorPanelCount
	case "j", "down":
		if s.sel[s.focused] < rows-1 {
			s.sel[s.focused]++
		}
	case "k", "up":
		if s.sel[s.focused] > 0 {
			s.sel[s.focused]--
		}
	case "g", "home":
		s.sel[s.focused] = 0
	case "G", "end":
		if rows > 0 {
			s.sel[s.focused] = rows - 1
		}
	case "r":
		m.analyticsLoading = true
		m.analyticsErr = nil
		return fetchAnalyticsCmd(m.gw)
	}
	return nil
}

func (s sponsorsModel) View(agg *analytics.Aggregator) string {
	t := s.theme

	if !agg.Ready() {
		msg := t.Renderer.NewStyle().Foreground(t.Subtext).Render("Waiting for analytics…")
		return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, msg)
	}

	colW := (s.width - 4) / 2
	if colW < 30 {
		colW = 30
	}

	sponsors := s.renderSponsorPanel(agg, colW)
	areas := s.renderAreaPanel(agg, colW)

	return lipgloss.JoinHorizontal(lipgloss.Top, sponsors, " ", areas)
}

func (s sponsorsModel) panelStyle(focused bool, width int) lipgloss.Style {
	t := s.theme
	borderColor := t.Secondary
	if focused {
		borderColor = t.Primary
	}
	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(width).
		Height(s.height - 2).
		Padding(0, 1)
}

func (s sponsorsModel) titleStyle(focused bool) lipgloss.Style {
	t := s.theme
	st := t.Renderer.NewStyle().Bold(true)
	if focused {
		return st.Foreground(t.Primary)
	}
	return st.Foreground(t.Secondary)
}

// visibleWindow slices [0,total) so the selected row stays on screen.
func (s sponsorsModel) visibleWindow(total, sel int) (int, int) {
	h := s.height - 6
	if h < 3 {
		h = 3
	}
	start := 0
	if sel >= h {
		start = sel - h + 1
	}
	end := start + h
	if end > total {
		end = total
	}
	return start, end
}

func (s sponsorsModel) renderSponsorPanel(agg *analytics.Aggregator, width int) string {
	t := s.theme
	focused := s.focused == panelSponsors
	rollups := agg.SponsorTable()
	sel := s.sel[panelSponsors]
	if sel >= len(rollups) {
		sel = 0
	}

	barW := width - 34
	if barW < 6 {
		barW = 6
	}

	var sb strings.Builder
	sb.WriteString(s.titleStyle(focused).Render(fmt.Sprintf("🏥 Sponsors by avg PTS (%d)", len(rollups))))
	sb.WriteString("\n")

	start, end := s.visibleWindow(len(rollups), sel)
	for i := start; i < end; i++ {
		r := rollups[i]
		barStyle := t.Renderer.NewStyle().Foreground(t.RiskColor(r.AvgPTS))
		line := fmt.Sprintf("%-16s %s %s %2d trials %s",
			Truncate(r.Sponsor, 16),
			barStyle.Render(RenderSparkline(r.AvgPTS/100, barW)),
			analytics.FormatScore(r.AvgPTS),
			r.Trials,
			analytics.FormatPercent(r.SuccessRate))
		if focused && i == sel {
			sb.WriteString(t.Selected.Render(line))
		} else {
			sb.WriteString(" " + line)
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	if len(rollups) == 0 {
		sb.WriteString(t.Renderer.NewStyle().Foreground(t.Subtext).Render(" no sponsor rollups"))
	}

	return s.panelStyle(focused, width).Render(sb.String())
}

func (s sponsorsModel) renderAreaPanel(agg *analytics.Aggregator, width int) string {
	t := s.theme
	focused := s.focused == panelAreas
	rollups := agg.Areas()
	sel := s.sel[panelAreas]
	if sel >= len(rollups) {
		sel = 0
	}

	barW := width - 32
	if barW < 6 {
		barW = 6
	}

	var sb strings.Builder
	sb.WriteString(s.titleStyle(focused).Render(fmt.Sprintf("🧬 Therapeutic areas (%d)", len(rollups))))
	sb.WriteString("\n")

	start, end := s.visibleWindow(len(rollups), sel)
	for i := start; i < end; i++ {
		r := rollups[i]
		barStyle := t.Renderer.NewStyle().Foreground(t.RiskColor(r.AvgPTS))
		line := fmt.Sprintf("%-16s %s %s %2d trials",
			Truncate(r.Area, 16),
			barStyle.Render(RenderSparkline(r.AvgPTS/100, barW)),
			analytics.FormatScore(r.AvgPTS),
			r.Trials)
		if focused && i == sel {
			sb.WriteString(t.Selected.Render(line))
		} else {
			sb.WriteString(" " + line)
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	if len(rollups) == 0 {
		sb.WriteString(t.Renderer.NewStyle().Foreground(t.Subtext).Render(" no area rollups"))
	}

	return s.panelStyle(focused, width).Render(sb.String())
}
