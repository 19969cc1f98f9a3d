package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/filter"
	"github.com/ptscope/ptscope/pkg/model"
	"github.com/ptscope/ptscope/pkg/store"
)

// trialStatuses is the cycling order of the status selector.
var trialStatuses = []string{"recruiting", "active", "completed", "terminated"}

// sortCycle is the cycling order of the sort field selector.
var sortCycle = []filter.SortField{filter.SortPTS, filter.SortEnrollment, filter.SortDuration, filter.SortSponsor}

// explorerModel is the trial browser: a search bar, the result table, and a
// pagination line. Filter state itself lives in the store; this model keeps
// only presentation state and the selector option lists derived from data.
type explorerModel struct {
	theme     Theme
	table     table.Model
	search    textinput.Model
	searching bool

	// Option lists for the area and sponsor selectors, derived from the
	// last successful fetch.
	areas    []string
	sponsors []string

	// page mirrors the rows currently in the table.
	page []model.Trial

	width  int
	height int
}

func newExplorerModel(theme Theme) explorerModel {
	ti := textinput.New()
	ti.Placeholder = "title, sponsor, or ID…"
	ti.CharLimit = 80
	ti.Prompt = "🔎 "
	ti.PromptStyle = theme.Renderer.NewStyle().Foreground(theme.Primary).Bold(true)

	tbl := table.New(
		table.WithColumns(explorerColumns(80)),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(theme.Secondary)
	s.Selected = s.Selected.
		Foreground(theme.Base.GetForeground()).
		Background(theme.Highlight).
		Bold(true)
	tbl.SetStyles(s)

	return explorerModel{theme: theme, table: tbl, search: ti}
}

func explorerColumns(width int) []table.Column {
	titleW := width - 76
	if titleW < 12 {
		titleW = 12
	}
	return []table.Column{
		{Title: "ID", Width: 13},
		{Title: "PTS", Width: 6},
		{Title: "RISK", Width: 7},
		{Title: "PHASE", Width: 9},
		{Title: "STATUS", Width: 11},
		{Title: "SPONSOR", Width: 16},
		{Title: "AREA", Width: 14},
		{Title: "TITLE", Width: titleW},
	}
}

func (e *explorerModel) setSize(w, h int) {
	e.width = w
	e.height = h
	e.table.SetColumns(explorerColumns(w - 2))
	e.table.SetWidth(w)
	tableH := h - 2 // search bar and pagination line
	if tableH < 4 {
		tableH = 4
	}
	e.table.SetHeight(tableH)
	e.search.Width = w - 12
}

// setRows mirrors the store's current page into the table, keeping the
// cursor inside bounds.
func (e *explorerModel) setRows(st *store.Store) {
	e.page = st.Page()
	rows := make([]table.Row, len(e.page))
	for i, tr := range e.page {
		rows[i] = table.Row{
			tr.ID,
			analytics.FormatScore(tr.PTS),
			analytics.DefaultThresholds.Band(tr.PTS),
			tr.Phase,
			string(tr.Status),
			Truncate(tr.Sponsor, 16),
			Truncate(tr.TherapeuticArea, 14),
			tr.Title,
		}
	}
	e.table.SetRows(rows)
	if c := e.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		e.table.SetCursor(len(rows) - 1)
	}
}

// setOptions rebuilds the area and sponsor cycling lists from a fetched
// trial set.
func (e *explorerModel) setOptions(trials []model.Trial) {
	areaSet := map[string]bool{}
	sponsorSet := map[string]bool{}
	for _, t := range trials {
		if t.TherapeuticArea != "" {
			areaSet[t.TherapeuticArea] = true
		}
		if t.Sponsor != "" {
			sponsorSet[t.Sponsor] = true
		}
	}
	e.areas = sortedKeys(areaSet)
	e.sponsors = sortedKeys(sponsorSet)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// selected returns the trial under the cursor.
func (e *explorerModel) selected() (model.Trial, bool) {
	c := e.table.Cursor()
	if c < 0 || c >= len(e.page) {
		return model.Trial{}, false
	}
	return e.page[c], true
}

// cycleOption steps through options with "" (no filter) between the last
// and first entries.
func cycleOption(current string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if current == "" {
		return options[0]
	}
	for i, o := range options {
		if o == current {
			if i+1 < len(options) {
				return options[i+1]
			}
			return ""
		}
	}
	return options[0]
}

func nextSortField(current filter.SortField) filter.SortField {
	for i, f := range sortCycle {
		if f == current {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}

func (m *Model) handleExplorerKey(msg tea.KeyMsg) tea.Cmd {
	e := &m.explorer

	if e.searching {
		switch msg.String() {
		case "enter":
			e.searching = false
			e.search.Blur()
			m.store.Filter.SetSearch(strings.TrimSpace(e.search.Value()))
			return m.refetchTrials()
		case "esc":
			e.searching = false
			e.search.Blur()
			e.search.SetValue(m.store.Filter.Search)
			return nil
		default:
			var cmd tea.Cmd
			e.search, cmd = e.search.Update(msg)
			return cmd
		}
	}

	f := &m.store.Filter
	switch msg.String() {
	case "/":
		e.searching = true
		e.search.SetValue(f.Search)
		e.search.CursorEnd()
		return e.search.Focus()

	case "f":
		f.SetStatus(cycleOption(f.Status, trialStatuses))
		return m.refetchTrials()
	case "t":
		f.SetArea(cycleOption(f.TherapeuticArea, e.areas))
		return m.refetchTrials()
	case "p":
		f.SetSponsor(cycleOption(f.Sponsor, e.sponsors))
		return m.refetchTrials()

	case "s":
		f.SetSort(nextSortField(f.SortBy), f.Order)
		return m.refetchTrials()
	case "o":
		f.CycleSort(f.SortBy)
		return m.refetchTrials()

	// PTS range nudges apply client-side; no refetch needed.
	case "[":
		f.SetPTSRange(f.PTSMin-5, f.PTSMax)
		m.syncDerived()
		return nil
	case "]":
		lo := f.PTSMin + 5
		if lo > f.PTSMax {
			lo = f.PTSMax
		}
		f.SetPTSRange(lo, f.PTSMax)
		m.syncDerived()
		return nil
	case "{":
		hi := f.PTSMax - 5
		if hi < f.PTSMin {
			hi = f.PTSMin
		}
		f.SetPTSRange(f.PTSMin, hi)
		m.syncDerived()
		return nil
	case "}":
		f.SetPTSRange(f.PTSMin, f.PTSMax+5)
		m.syncDerived()
		return nil

	case "h", "left":
		if f.Page > 1 {
			f.SetPage(f.Page - 1)
			m.syncDerived()
		}
		return nil
	case "l", "right":
		if f.Page < m.store.TotalPages() {
			f.SetPage(f.Page + 1)
			m.syncDerived()
		}
		return nil

	case "x":
		pageSize := f.PageSize
		f.Clear()
		f.SetPageSize(pageSize)
		e.search.SetValue("")
		return m.refetchTrials()
	case "r":
		return m.refetchTrials()

	case "c":
		if tr, ok := e.selected(); ok {
			if err := clipboard.WriteAll(tr.ID); err != nil {
				m.setStatusError(fmt.Sprintf("❌ Clipboard error: %v", err))
			} else {
				m.setStatus(fmt.Sprintf("📋 Copied %s to clipboard", tr.ID))
			}
		}
		return nil
	case "C":
		if tr, ok := e.selected(); ok {
			if err := clipboard.WriteAll(trialMarkdown(tr)); err != nil {
				m.setStatusError(fmt.Sprintf("❌ Clipboard error: %v", err))
			} else {
				m.setStatus(fmt.Sprintf("📋 Copied %s as Markdown", tr.ID))
			}
		}
		return nil

	case "enter":
		if tr, ok := e.selected(); ok {
			return m.openDetail(tr)
		}
		return nil
	}

	var cmd tea.Cmd
	e.table, cmd = e.table.Update(msg)
	return cmd
}

// trialMarkdown renders one trial as a Markdown snippet for the clipboard.
func trialMarkdown(t model.Trial) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s: %s\n\n", t.ID, t.Title)
	fmt.Fprintf(&sb, "**Sponsor:** %s\n", t.Sponsor)
	fmt.Fprintf(&sb, "**Area:** %s\n", t.TherapeuticArea)
	fmt.Fprintf(&sb, "**Phase:** %s · **Status:** %s\n", t.Phase, t.Status)
	fmt.Fprintf(&sb, "**PTS:** %s (%s risk)\n", analytics.FormatScore(t.PTS), analytics.DefaultThresholds.Band(t.PTS))
	fmt.Fprintf(&sb, "**Enrollment:** %d across %d countries\n", t.Enrollment, t.Countries)
	fmt.Fprintf(&sb, "**Duration:** %d days\n", t.DurationDays)
	if labels := t.Endpoints.Labels(); len(labels) > 0 {
		fmt.Fprintf(&sb, "**Endpoints:** %s\n", strings.Join(labels, ", "))
	}
	return sb.String()
}

func (e explorerModel) View(st *store.Store) string {
	t := e.theme

	searchBar := e.renderSearchBar(st)

	var body string
	switch st.Phase() {
	case store.PhaseError:
		body = e.renderFetchError(st.Err())
	case store.PhaseLoading:
		if len(st.Raw()) == 0 {
			msg := t.Renderer.NewStyle().Foreground(t.Subtext).Render("Loading trials…")
			body = lipgloss.Place(e.width, e.tableHeight(), lipgloss.Center, lipgloss.Center, msg)
		} else {
			body = e.table.View()
		}
	default:
		if st.Total() == 0 {
			msg := t.Renderer.NewStyle().Foreground(t.Subtext).Render("No trials match the current filters  (x clears them)")
			body = lipgloss.Place(e.width, e.tableHeight(), lipgloss.Center, lipgloss.Center, msg)
		} else {
			body = e.table.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, searchBar, body, e.renderPager(st))
}

func (e explorerModel) tableHeight() int {
	h := e.height - 2
	if h < 4 {
		h = 4
	}
	return h
}

func (e explorerModel) renderSearchBar(st *store.Store) string {
	t := e.theme
	if e.searching {
		return e.search.View()
	}
	hintStyle := t.Renderer.NewStyle().Foreground(t.Muted)
	if st.Filter.Search != "" {
		return hintStyle.Render("🔎 ") + t.Base.Render(st.Filter.Search) + hintStyle.Render("  (/ to edit)")
	}
	return hintStyle.Render("🔎 / to search")
}

func (e explorerModel) renderFetchError(err error) string {
	t := e.theme

	titleStyle := t.Renderer.NewStyle().Foreground(t.Danger).Bold(true)
	textStyle := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
	keyStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	content := titleStyle.Render("Could not fetch trials") + "\n\n" +
		textStyle.Render(Truncate(msg, 70)) + "\n\n" +
		keyStyle.Render("r") + textStyle.Render(" retry")

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Danger).
		Padding(1, 3).
		Render(content)

	return lipgloss.Place(e.width, e.tableHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (e explorerModel) renderPager(st *store.Store) string {
	t := e.theme
	f := st.Filter

	order := "↓"
	if f.Order == filter.Asc {
		order = "↑"
	}
	info := fmt.Sprintf(" Page %d of %d · %d trials · sort %s %s", f.Page, st.TotalPages(), st.Total(), f.SortBy, order)
	if !f.FullRange() {
		info += fmt.Sprintf(" · pts %.0f-%.0f", f.PTSMin, f.PTSMax)
	}
	return t.Renderer.NewStyle().Foreground(t.Secondary).Render(info)
}
