package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/model"
)

// featuresModel is the attribution tab: a trial picker on the left and the
// force plot of the chosen trial on the right. The plot loads on demand and
// keeps showing the last loaded trial until a new one is requested.
type featuresModel struct {
	theme  Theme
	trials []model.Trial
	sel    int
	scroll int

	exp       *model.SHAPExplanation
	loadingID string
	errID     string
	errMsg    string
	spin      spinner.Model

	width  int
	height int
}

func newFeaturesModel(theme Theme) featuresModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)
	return featuresModel{theme: theme, spin: sp}
}

func (f *featuresModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

// setTrials swaps in the current filtered set, keeping the selection on the
// same trial when it survives the change.
func (f *featuresModel) setTrials(trials []model.Trial) {
	var selID string
	if f.sel >= 0 && f.sel < len(f.trials) {
		selID = f.trials[f.sel].ID
	}
	f.trials = trials
	f.sel = 0
	for i, t := range trials {
		if t.ID == selID {
			f.sel = i
			break
		}
	}
	f.clampScroll()
}

func (f *featuresModel) listHeight() int {
	h := f.height - 3
	if h < 3 {
		h = 3
	}
	return h
}

func (f *featuresModel) clampScroll() {
	h := f.listHeight()
	if f.sel < f.scroll {
		f.scroll = f.sel
	}
	if f.sel >= f.scroll+h {
		f.scroll = f.sel - h + 1
	}
	if f.scroll < 0 {
		f.scroll = 0
	}
}

func (f *featuresModel) selected() (model.Trial, bool) {
	if f.sel < 0 || f.sel >= len(f.trials) {
		return model.Trial{}, false
	}
	return f.trials[f.sel], true
}

func (m *Model) handleFeaturesKey(msg tea.KeyMsg) tea.Cmd {
	f := &m.features

	switch msg.String() {
	case "j", "down":
		if f.sel < len(f.trials)-1 {
			f.sel++
			f.clampScroll()
		}
		return nil
	case "k", "up":
		if f.sel > 0 {
			f.sel--
			f.clampScroll()
		}
		return nil
	case "g", "home":
		f.sel = 0
		f.clampScroll()
		return nil
	case "G", "end":
		if len(f.trials) > 0 {
			f.sel = len(f.trials) - 1
			f.clampScroll()
		}
		return nil
	case "enter":
		if tr, ok := f.selected(); ok {
			f.loadingID = tr.ID
			f.errID = ""
			f.errMsg = ""
			return tea.Batch(f.spin.Tick, fetchExplanationCmd(m.gw, tr.ID))
		}
		return nil
	case "r":
		if f.errID != "" {
			id := f.errID
			f.loadingID = id
			f.errID = ""
			f.errMsg = ""
			return tea.Batch(f.spin.Tick, fetchExplanationCmd(m.gw, id))
		}
		return nil
	}
	return nil
}

func (f featuresModel) Update(msg tea.Msg) (featuresModel, tea.Cmd) {
	switch msg := msg.(type) {
	case shapLoadedMsg:
		// Only the fetch we are waiting on may land; anything else is stale.
		if msg.trialID != f.loadingID {
			return f, nil
		}
		f.loadingID = ""
		if msg.err != nil {
			f.errID = msg.trialID
			f.errMsg = msg.err.Error()
			return f, nil
		}
		f.exp = msg.exp
		return f, nil

	case spinner.TickMsg:
		if f.loadingID == "" {
			return f, nil
		}
		var cmd tea.Cmd
		f.spin, cmd = f.spin.Update(msg)
		return f, cmd
	}
	return f, nil
}

func (f featuresModel) View() string {
	listW := f.width / 3
	if listW < 24 {
		listW = 24
	}
	plotW := f.width - listW - 3

	list := f.renderTrialList(listW)
	plot := f.renderPlotPane(plotW)

	return lipgloss.JoinHorizontal(lipgloss.Top, list, " ", plot)
}

func (f featuresModel) renderTrialList(width int) string {
	t := f.theme

	titleStyle := t.Renderer.NewStyle().Foreground(t.Secondary).Bold(true)
	rowStyle := t.Renderer.NewStyle().PaddingLeft(1)

	header := titleStyle.Render(fmt.Sprintf("Trials (%d)", len(f.trials)))

	h := f.listHeight()
	end := f.scroll + h
	if end > len(f.trials) {
		end = len(f.trials)
	}

	rows := make([]string, 0, h+1)
	rows = append(rows, header)
	for i := f.scroll; i < end; i++ {
		tr := f.trials[i]
		ptsStyle := t.Renderer.NewStyle().Foreground(t.RiskColor(tr.PTS))
		line := fmt.Sprintf("%-13s %s", tr.ID, ptsStyle.Render(analytics.FormatScore(tr.PTS)))
		if i == f.sel {
			rows = append(rows, t.Selected.Render(line))
		} else {
			rows = append(rows, rowStyle.Render(line))
		}
	}
	if len(f.trials) == 0 {
		rows = append(rows, t.Renderer.NewStyle().Foreground(t.Subtext).Render(" no trials loaded"))
	}

	body := ""
	for i, r := range rows {
		if i > 0 {
			body += "\n"
		}
		body += r
	}

	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(width).
		Height(f.height - 2).
		Padding(0, 1).
		Render(body)
}

func (f featuresModel) renderPlotPane(width int) string {
	t := f.theme

	subtextStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
	errorStyle := t.Renderer.NewStyle().Foreground(t.Danger).Bold(true)
	keyStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)

	var body string
	switch {
	case f.loadingID != "":
		body = f.spin.View() + subtextStyle.Render(" Fetching attribution for "+f.loadingID+"…")
	case f.errID != "":
		body = errorStyle.Render("Explanation unavailable") + "\n" +
			t.Base.Render(Truncate(f.errMsg, width-6)) + "\n\n" +
			keyStyle.Render("r") + subtextStyle.Render(" retry")
	case f.exp != nil:
		titleStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
		body = titleStyle.Render("Why "+f.exp.TrialID+" scores this way") + "\n\n" +
			renderForcePlot(f.exp, t, width-6)
	default:
		body = subtextStyle.Render("Pick a trial and press ⏎ to load its feature attribution")
	}

	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(width).
		Height(f.height - 2).
		Padding(0, 1).
		Render(body)
}
