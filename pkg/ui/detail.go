package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/model"
)

// detailState is the lifecycle of the explanation fetch inside the modal.
type detailState int

const (
	detailLoading detailState = iota
	detailReady
	detailError
)

// detailModel is the per-trial detail modal. The explanation inside it is
// fetched when the modal opens and discarded when it closes; closing and
// reopening always refetches.
type detailModel struct {
	trial  model.Trial
	state  detailState
	exp    *model.SHAPExplanation
	errMsg string

	spin   spinner.Model
	theme  Theme
	width  int
	height int
}

func newDetailModel(trial model.Trial, theme Theme) detailModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)

	return detailModel{
		trial: trial,
		state: detailLoading,
		spin:  sp,
		theme: theme,
		width: 72,
	}
}

// openDetail swaps in a fresh modal and starts the explanation fetch.
func (m *Model) openDetail(tr model.Trial) tea.Cmd {
	m.detail = newDetailModel(tr, m.theme)
	m.detail.setSize(m.width, m.height)
	m.showDetail = true
	return tea.Batch(m.detail.spin.Tick, fetchExplanationCmd(m.gw, tr.ID))
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		// Discard the explanation; reopening refetches.
		m.showDetail = false
		m.detail = detailModel{}
		return nil
	case "r":
		if m.detail.state == detailError {
			m.detail.state = detailLoading
			m.detail.errMsg = ""
			return tea.Batch(m.detail.spin.Tick, fetchExplanationCmd(m.gw, m.detail.trial.ID))
		}
	}
	return nil
}

func (d detailModel) Update(msg tea.Msg) (detailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case shapLoadedMsg:
		// Responses for other trials are stale; drop them.
		if msg.trialID != d.trial.ID {
			return d, nil
		}
		if msg.err != nil {
			d.state = detailError
			d.errMsg = msg.err.Error()
			return d, nil
		}
		d.state = detailReady
		d.exp = msg.exp
		return d, nil

	case spinner.TickMsg:
		if d.state != detailLoading {
			return d, nil
		}
		var cmd tea.Cmd
		d.spin, cmd = d.spin.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d *detailModel) setSize(width, height int) {
	w := width - 10
	if w < 56 {
		w = 56
	}
	if w > 84 {
		w = 84
	}
	d.width = w
	d.height = height
}

func (d detailModel) View() string {
	t := d.theme
	r := t.Renderer

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(d.width)

	headerStyle := r.NewStyle().Bold(true).Foreground(t.Primary)
	subtextStyle := r.NewStyle().Foreground(t.Subtext)
	errorStyle := r.NewStyle().Foreground(t.Danger).Bold(true)
	keyStyle := r.NewStyle().Foreground(t.Primary).Bold(true)

	tr := d.trial
	var b strings.Builder

	b.WriteString(headerStyle.Render(tr.ID))
	b.WriteString(" ")
	b.WriteString(t.Base.Render(Truncate(tr.Title, d.width-18)))
	b.WriteString("\n")

	icon, iconColor := t.StatusIcon(tr.Status)
	b.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	b.WriteString(subtextStyle.Render(fmt.Sprintf(" %s · %s · %s · %d patients · %d countries · %d days",
		tr.Status, tr.Phase, tr.Sponsor, tr.Enrollment, tr.Countries, tr.DurationDays)))
	b.WriteString("\n")

	if labels := tr.Endpoints.Labels(); len(labels) > 0 {
		b.WriteString(subtextStyle.Render("Endpoints: " + strings.Join(labels, ", ")))
		b.WriteString("\n")
	}

	ptsStyle := r.NewStyle().Foreground(t.RiskColor(tr.PTS)).Bold(true)
	b.WriteString(t.Base.Render("PTS "))
	b.WriteString(ptsStyle.Render(analytics.FormatScore(tr.PTS)))
	b.WriteString(subtextStyle.Render(fmt.Sprintf("  (%s risk)", analytics.DefaultThresholds.Band(tr.PTS))))
	b.WriteString("\n\n")

	switch d.state {
	case detailLoading:
		b.WriteString(d.spin.View())
		b.WriteString(subtextStyle.Render(" Fetching feature attribution…"))

	case detailError:
		b.WriteString(errorStyle.Render("Explanation unavailable"))
		b.WriteString("\n")
		b.WriteString(t.Base.Render(Truncate(d.errMsg, d.width-8)))
		b.WriteString("\n\n")
		b.WriteString(keyStyle.Render("r"))
		b.WriteString(subtextStyle.Render(" retry   "))
		b.WriteString(keyStyle.Render("esc"))
		b.WriteString(subtextStyle.Render(" close"))

	case detailReady:
		b.WriteString(renderForcePlot(d.exp, t, d.width-6))
		b.WriteString("\n")
		b.WriteString(subtextStyle.Render("esc closes"))
	}

	return modalStyle.Render(b.String())
}

// CenterModal returns the modal centered in the given area.
func (d detailModel) CenterModal(termWidth, termHeight int) string {
	return lipgloss.Place(termWidth, termHeight, lipgloss.Center, lipgloss.Center, d.View())
}

// renderForcePlot draws a SHAP explanation as a centered force plot: the
// base value, one signed bar per feature, and the predicted score the
// contributions add up to.
func renderForcePlot(exp *model.SHAPExplanation, t Theme, width int) string {
	r := t.Renderer

	labelW := 14
	valueW := 7
	barW := width - labelW - valueW - 3
	if barW < 11 {
		barW = 11
	}

	subtextStyle := r.NewStyle().Foreground(t.Subtext)
	posStyle := r.NewStyle().Foreground(t.Positive)
	negStyle := r.NewStyle().Foreground(t.Negative)

	maxAbs := 0.0
	for _, f := range exp.Features {
		if a := math.Abs(f.Contribution); a > maxAbs {
			maxAbs = a
		}
	}

	var b strings.Builder
	b.WriteString(subtextStyle.Render(fmt.Sprintf("base value %s", analytics.FormatScore(exp.BaseValue))))
	b.WriteString("\n")

	for _, f := range exp.Features {
		bar := RenderForceBar(f.Contribution, maxAbs, barW)
		style := posStyle
		if f.Contribution < 0 {
			style = negStyle
		}
		b.WriteString(fmt.Sprintf("%-*s %s %s\n",
			labelW, Truncate(f.Name, labelW),
			style.Render(bar),
			style.Render(fmt.Sprintf("%+6.2f", f.Contribution))))
	}

	predStyle := r.NewStyle().Foreground(t.RiskColor(exp.PredictedPTS)).Bold(true)
	b.WriteString(subtextStyle.Render("predicted  "))
	b.WriteString(predStyle.Render(analytics.FormatScore(exp.PredictedPTS)))

	legend := posStyle.Render("█ raises") + subtextStyle.Render(" · ") + negStyle.Render("█ lowers")
	b.WriteString("\n")
	b.WriteString(legend)

	return b.String()
}
