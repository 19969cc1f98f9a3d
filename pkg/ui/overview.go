package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
)

// overviewModel renders the aggregate dashboard: metric cards, the PTS
// distribution, and design-factor correlations. It holds no data of its
// own; everything comes from the aggregator at render time.
type overviewModel struct {
	theme  Theme
	width  int
	height int
}

func newOverviewModel(theme Theme) overviewModel {
	return overviewModel{theme: theme}
}

func (o *overviewModel) setSize(w, h int) {
	o.width = w
	o.height = h
}

func (m *Model) handleOverviewKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r":
		m.analyticsLoading = true
		m.analyticsErr = nil
		return tea.Batch(fetchAnalyticsCmd(m.gw), m.refetchTrials())
	}
	return nil
}

func (o overviewModel) View(agg *analytics.Aggregator, corrs []analytics.FactorCorrelation, loading bool, err error) string {
	t := o.theme

	if err != nil {
		return o.renderBlockingError(err)
	}
	if loading || !agg.Ready() {
		msg := t.Renderer.NewStyle().Foreground(t.Subtext).Render("Loading analytics…")
		return lipgloss.Place(o.width, o.height, lipgloss.Center, lipgloss.Center, msg)
	}

	cards := o.renderMetricCards(agg.Metrics())
	hist := o.renderHistogram(agg)
	corr := o.renderCorrelations(corrs)

	return lipgloss.JoinVertical(lipgloss.Left, cards, hist, corr)
}

// renderBlockingError fills the tab with the analytics failure; the rest of
// the dashboard stays usable from the other tabs.
func (o overviewModel) renderBlockingError(err error) string {
	t := o.theme

	titleStyle := t.Renderer.NewStyle().Foreground(t.Danger).Bold(true)
	textStyle := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
	keyStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)

	content := titleStyle.Render("Analytics unavailable") + "\n\n" +
		textStyle.Render(Truncate(err.Error(), 70)) + "\n\n" +
		keyStyle.Render("r") + textStyle.Render(" retry")

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Danger).
		Padding(1, 3).
		Render(content)

	return lipgloss.Place(o.width, o.height, lipgloss.Center, lipgloss.Center, box)
}

func (o overviewModel) renderMetricCards(met analytics.Metrics) string {
	t := o.theme

	cardW := (o.width - 2) / 5
	if cardW < 14 {
		cardW = 14
	}
	cardW -= 2 // border

	card := func(label, value string, valueColor lipgloss.AdaptiveColor) string {
		valueStyle := t.Renderer.NewStyle().Foreground(valueColor).Bold(true)
		labelStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
		body := valueStyle.Render(value) + "\n" + labelStyle.Render(label)
		return t.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Width(cardW).
			Padding(0, 1).
			Render(body)
	}

	cards := []string{
		card("Total trials", fmt.Sprintf("%d", met.TotalTrials), t.Primary),
		card("Average PTS", analytics.FormatScore(met.AveragePTS), t.RiskColor(met.AveragePTS)),
		card("High risk", fmt.Sprintf("%d", met.HighRisk), t.RiskHigh),
		card("Medium risk", fmt.Sprintf("%d", met.MediumRisk), t.RiskMedium),
		card("Low risk", fmt.Sprintf("%d", met.LowRisk), t.RiskLow),
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (o overviewModel) renderHistogram(agg *analytics.Aggregator) string {
	t := o.theme

	barW := o.width - 22
	if barW > 60 {
		barW = 60
	}
	if barW < 10 {
		barW = 10
	}

	max := agg.MaxBucket()
	var sb strings.Builder
	for i, b := range agg.Histogram() {
		// Bucket edges are fixed at 20-point steps; color by midpoint band.
		mid := 10.0 + 20.0*float64(i)
		rowStyle := t.Renderer.NewStyle().Foreground(t.RiskColor(mid))
		sb.WriteString(rowStyle.Render(RenderHistogramRow(b.Range, b.Count, max, barW)))
		if i < len(agg.Histogram())-1 {
			sb.WriteString("\n")
		}
	}

	titleStyle := t.Renderer.NewStyle().Foreground(t.Secondary).Bold(true)
	body := titleStyle.Render("📊 PTS distribution") + "\n" + sb.String()

	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(o.width - 2).
		Padding(0, 1).
		Render(body)
}

func (o overviewModel) renderCorrelations(corrs []analytics.FactorCorrelation) string {
	t := o.theme

	labelStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
	if len(corrs) == 0 {
		return labelStyle.Render(" Correlations need at least two trials")
	}

	parts := make([]string, 0, len(corrs))
	for _, c := range corrs {
		color := t.Positive
		if c.R < 0 {
			color = t.Negative
		}
		valStyle := t.Renderer.NewStyle().Foreground(color).Bold(true)
		parts = append(parts, fmt.Sprintf("%s %s", c.Factor, valStyle.Render(fmt.Sprintf("%+.2f", c.R))))
	}

	sep := t.Renderer.NewStyle().Foreground(t.Muted).Render(" · ")
	return " " + labelStyle.Render("PTS correlates with  ") + strings.Join(parts, sep)
}
