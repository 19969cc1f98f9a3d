package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/assistant"
	"github.com/ptscope/ptscope/pkg/model"
)

// assistantModel is the chat tab: a scrollback viewport over the log, the
// question input, and a spinner while an answer is pending.
type assistantModel struct {
	theme Theme
	log   *assistant.Log
	md    *MarkdownRenderer
	input textinput.Model
	vp    viewport.Model
	spin  spinner.Model

	width  int
	height int
	ready  bool
}

func newAssistantModel(theme Theme) assistantModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about trials, sponsors, endpoints…"
	ti.CharLimit = 200
	ti.Prompt = "❯ "
	ti.PromptStyle = theme.Renderer.NewStyle().Foreground(theme.Primary).Bold(true)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)

	return assistantModel{
		theme: theme,
		log:   assistant.NewLog(),
		md:    NewMarkdownRenderer(76),
		input: ti,
		spin:  sp,
	}
}

func (a *assistantModel) setSize(w, h int) {
	a.width = w
	a.height = h

	vpH := h - 2 // input line and spacer
	if vpH < 3 {
		vpH = 3
	}
	if !a.ready {
		a.vp = viewport.New(w, vpH)
		a.ready = true
	} else {
		a.vp.Width = w
		a.vp.Height = vpH
	}
	a.input.Width = w - 8

	wrap := w - 4
	if wrap > 100 {
		wrap = 100
	}
	a.md.SetWidth(wrap)
	a.refresh()
}

// refresh rebuilds the viewport content from the log.
func (a *assistantModel) refresh() {
	if !a.ready {
		return
	}
	a.vp.SetContent(a.renderLog())
	a.vp.GotoBottom()
}

// finish lands the pending answer in the log.
func (a *assistantModel) finish(msg chatAnsweredMsg) {
	if !a.log.Processing() {
		return
	}
	if msg.err != nil {
		a.log.FinishError()
	} else {
		a.log.FinishSuccess(msg.resp)
	}
	a.refresh()
}

func (a assistantModel) updateSpinner(msg spinner.TickMsg) (assistantModel, tea.Cmd) {
	if !a.log.Processing() {
		return a, nil
	}
	var cmd tea.Cmd
	a.spin, cmd = a.spin.Update(msg)
	return a, cmd
}

func (m *Model) handleAssistantKey(msg tea.KeyMsg) tea.Cmd {
	a := &m.assistpnl

	if a.input.Focused() {
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(a.input.Value())
			if q == "" || !a.log.Submit(q) {
				return nil
			}
			a.input.SetValue("")
			a.refresh()
			return tea.Batch(a.spin.Tick, askCmd(m.gw, m.responder, q, m.store.Raw()))
		case "esc":
			a.input.Blur()
			return nil
		case "ctrl+l":
			a.log.Clear()
			a.refresh()
			return nil
		default:
			var cmd tea.Cmd
			a.input, cmd = a.input.Update(msg)
			return cmd
		}
	}

	switch msg.String() {
	case "i", "/":
		return a.input.Focus()
	case "ctrl+l":
		a.log.Clear()
		a.refresh()
		return nil
	}

	var cmd tea.Cmd
	a.vp, cmd = a.vp.Update(msg)
	return cmd
}

func (a assistantModel) View() string {
	t := a.theme

	var body string
	if a.ready {
		body = a.vp.View()
	}

	status := ""
	if a.log.Processing() {
		status = a.spin.View() + t.Renderer.NewStyle().Foreground(t.Subtext).Render(" thinking…")
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, status, a.input.View())
}

func (a assistantModel) renderLog() string {
	t := a.theme

	if a.log.Len() == 0 {
		hint := t.Renderer.NewStyle().Foreground(t.Subtext).Render(
			"Ask about top oncology trials, sponsors above 80 PTS, ORR endpoint\ncoverage, or common failure features.")
		return "\n" + hint
	}

	var sb strings.Builder
	for _, msg := range a.log.Messages() {
		switch msg.Role {
		case model.RoleUser:
			youStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
			sb.WriteString(youStyle.Render("You ❯ "))
			sb.WriteString(t.Base.Render(msg.Content))
		case model.RoleAssistant:
			sb.WriteString(a.renderAnswer(msg))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (a assistantModel) renderAnswer(msg model.ChatMessage) string {
	t := a.theme

	if msg.Response == nil {
		// Plain-text entries: the apology from a failed round trip.
		return t.Renderer.NewStyle().Foreground(t.Danger).Render(msg.Content)
	}

	card := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	return card.Render(a.renderResponse(msg.Response))
}

// renderResponse lays out one structured answer. The kind set is closed;
// anything unrecognized degrades to its text, so a newer server cannot
// break the panel.
func (a assistantModel) renderResponse(resp *model.ChatResponse) string {
	t := a.theme
	titleStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)

	var sb strings.Builder
	if resp.Title != "" {
		sb.WriteString(titleStyle.Render(resp.Title))
		sb.WriteString("\n")
	}

	switch resp.Kind {
	case model.KindTable:
		sb.WriteString(a.renderTable(resp.Columns, resp.Rows))
	case model.KindList:
		for i, item := range resp.Items {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("• " + item)
		}
	case model.KindSummary:
		labelStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
		for i, s := range resp.Stats {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(labelStyle.Render(fmt.Sprintf("%-24s", s.Label)) + t.Base.Render(string(s.Value)))
		}
	case model.KindFeatures:
		sb.WriteString(a.renderFeatureWeights(resp.Features))
	case model.KindWhatIf:
		sb.WriteString(a.renderWhatIf(resp))
	case model.KindText:
		sb.WriteString(a.renderMarkdown(resp.Text))
	default:
		sb.WriteString(a.renderMarkdown(resp.Text))
	}
	return sb.String()
}

func (a assistantModel) renderMarkdown(text string) string {
	out, err := a.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (a assistantModel) renderTable(columns []string, rows [][]model.Cell) string {
	t := a.theme

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len([]rune(c))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(string(cell))) > widths[i] {
				widths[i] = len([]rune(string(cell)))
			}
		}
	}

	headStyle := t.Renderer.NewStyle().Foreground(t.Secondary).Bold(true)

	var sb strings.Builder
	head := make([]string, len(columns))
	for i, c := range columns {
		head[i] = fmt.Sprintf("%-*s", widths[i], c)
	}
	sb.WriteString(headStyle.Render(strings.Join(head, "  ")))
	for _, row := range rows {
		sb.WriteString("\n")
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			cells = append(cells, fmt.Sprintf("%-*s", w, string(cell)))
		}
		sb.WriteString(strings.Join(cells, "  "))
	}
	return sb.String()
}

func (a assistantModel) renderFeatureWeights(features []model.FeatureWeight) string {
	t := a.theme

	maxW := 0.0
	for _, f := range features {
		if f.Weight > maxW {
			maxW = f.Weight
		}
	}

	var sb strings.Builder
	for i, f := range features {
		if i > 0 {
			sb.WriteString("\n")
		}
		arrow, color := "↑", t.Positive
		if f.Direction == "negative" {
			arrow, color = "↓", t.Negative
		}
		dirStyle := t.Renderer.NewStyle().Foreground(color)
		frac := 0.0
		if maxW > 0 {
			frac = f.Weight / maxW
		}
		sb.WriteString(fmt.Sprintf("%s %-18s %s %.2f",
			dirStyle.Render(arrow),
			Truncate(f.Feature, 18),
			dirStyle.Render(RenderSparkline(frac, 12)),
			f.Weight))
	}
	return sb.String()
}

func (a assistantModel) renderWhatIf(resp *model.ChatResponse) string {
	t := a.theme

	deltaColor := t.Positive
	if resp.Delta < 0 {
		deltaColor = t.Negative
	}
	deltaStyle := t.Renderer.NewStyle().Foreground(deltaColor).Bold(true)
	subtext := t.Renderer.NewStyle().Foreground(t.Subtext)

	line := fmt.Sprintf("%s → %s  (%s)",
		analytics.FormatScore(resp.Baseline),
		analytics.FormatScore(resp.Adjusted),
		deltaStyle.Render(analytics.FormatDelta(resp.Delta)))

	if resp.Text == "" {
		return line
	}
	return line + "\n" + subtext.Render(resp.Text)
}
