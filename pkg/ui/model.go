package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/api"
	"github.com/ptscope/ptscope/pkg/assistant"
	"github.com/ptscope/ptscope/pkg/store"
)

// Tab identifies one of the dashboard's top-level views.
type Tab int

const (
	TabOverview Tab = iota
	TabExplorer
	TabFeatures
	TabSponsors
	TabAssistant
	tabCount
)

func (t Tab) Title() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabExplorer:
		return "Explorer"
	case TabFeatures:
		return "Features"
	case TabSponsors:
		return "Sponsors"
	case TabAssistant:
		return "Assistant"
	default:
		return "?"
	}
}

// Config carries the wiring the TUI needs from the command line.
type Config struct {
	Gateway api.Gateway

	// Responder, when non-nil, answers questions locally instead of the
	// gateway's chat endpoint.
	Responder assistant.Responder

	// PageSize overrides the explorer's default page length when positive.
	PageSize int

	// SourceName is shown in the footer: the API base URL or a file path.
	SourceName string
}

// Model is the main Bubble Tea model for the PTS dashboard.
type Model struct {
	gw        api.Gateway
	responder assistant.Responder

	// Data
	store        *store.Store
	agg          *analytics.Aggregator
	correlations []analytics.FactorCorrelation

	// Analytics fetch lifecycle (the trial list has its own, in the store)
	analyticsLoading bool
	analyticsErr     error

	// Tabs
	tab       Tab
	overview  overviewModel
	explorer  explorerModel
	features  featuresModel
	sponsors  sponsorsModel
	assistpnl assistantModel

	// Detail modal
	detail     detailModel
	showDetail bool

	// Overlays
	showHelp        bool
	showQuitConfirm bool

	theme      Theme
	sourceName string
	ready      bool
	width      int
	height     int

	// Status message (for temporary feedback, cleared on next keypress)
	statusMsg     string
	statusIsError bool
}

// NewModel wires the dashboard against the given gateway.
func NewModel(cfg Config) Model {
	theme := DefaultTheme(lipgloss.NewRenderer(os.Stdout))

	st := store.New()
	if cfg.PageSize > 0 {
		st.Filter.SetPageSize(cfg.PageSize)
	}

	return Model{
		gw:               cfg.Gateway,
		responder:        cfg.Responder,
		store:            st,
		agg:              analytics.NewAggregator(),
		analyticsLoading: true,
		theme:            theme,
		sourceName:       cfg.SourceName,
		overview:         newOverviewModel(theme),
		explorer:         newExplorerModel(theme),
		features:         newFeaturesModel(theme),
		sponsors:         newSponsorsModel(theme),
		assistpnl:        newAssistantModel(theme),
	}
}

func (m Model) Init() tea.Cmd {
	seq, params := m.store.Begin()
	return tea.Batch(
		fetchTrialsCmd(m.gw, seq, params),
		fetchAnalyticsCmd(m.gw),
		textinput.Blink,
	)
}

// refetchTrials begins a new fetch generation for the current filter state.
func (m *Model) refetchTrials() tea.Cmd {
	seq, params := m.store.Begin()
	return fetchTrialsCmd(m.gw, seq, params)
}

// syncDerived pushes the store's current view into the tabs that mirror it.
func (m *Model) syncDerived() {
	m.explorer.setRows(m.store)
	m.features.setTrials(m.store.Filtered())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case trialsLoadedMsg:
		if !m.store.Commit(msg.seq, msg.trials, msg.err) {
			return m, nil
		}
		if msg.err == nil {
			m.correlations = analytics.Correlations(m.store.Raw())
			m.explorer.setOptions(m.store.Raw())
		}
		m.syncDerived()
		return m, nil

	case analyticsLoadedMsg:
		m.analyticsLoading = false
		m.analyticsErr = msg.err
		if msg.err == nil {
			m.agg.Set(msg.snap)
		}
		return m, nil

	case shapLoadedMsg:
		var cmd tea.Cmd
		if m.showDetail {
			m.detail, cmd = m.detail.Update(msg)
		} else {
			m.features, cmd = m.features.Update(msg)
		}
		return m, cmd

	case chatAnsweredMsg:
		m.assistpnl.finish(msg)
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		if m.showDetail {
			m.detail, cmd = m.detail.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.features, cmd = m.features.Update(msg)
		cmds = append(cmds, cmd)
		m.assistpnl, cmd = m.assistpnl.updateSpinner(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		// Clear status message on any keypress
		m.statusMsg = ""
		m.statusIsError = false
		cmd := m.handleKey(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey routes one keypress through the overlay stack, then the focused
// text input, then global shortcuts, then the active tab.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showQuitConfirm {
		switch msg.String() {
		case "esc", "y", "Y":
			return tea.Quit
		default:
			m.showQuitConfirm = false
		}
		return nil
	}

	if m.showHelp {
		m.showHelp = false
		return nil
	}

	if m.showDetail {
		return m.handleDetailKey(msg)
	}

	// A focused text input owns every key except force quit.
	if m.inputCaptures() {
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		return m.handleTabKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "q":
		m.showQuitConfirm = true
		return nil
	case "?":
		m.showHelp = true
		return nil
	case "tab":
		m.tab = (m.tab + 1) % tabCount
		return nil
	case "shift+tab":
		m.tab = (m.tab + tabCount - 1) % tabCount
		return nil
	case "1", "2", "3", "4", "5":
		m.tab = Tab(msg.String()[0] - '1')
		return nil
	}

	return m.handleTabKey(msg)
}

// inputCaptures reports whether a text input currently has keyboard focus.
func (m *Model) inputCaptures() bool {
	switch m.tab {
	case TabExplorer:
		return m.explorer.searching
	case TabAssistant:
		return m.assistpnl.input.Focused()
	}
	return false
}

func (m *Model) handleTabKey(msg tea.KeyMsg) tea.Cmd {
	switch m.tab {
	case TabOverview:
		return m.handleOverviewKey(msg)
	case TabExplorer:
		return m.handleExplorerKey(msg)
	case TabFeatures:
		return m.handleFeaturesKey(msg)
	case TabSponsors:
		return m.handleSponsorsKey(msg)
	case TabAssistant:
		return m.handleAssistantKey(msg)
	}
	return nil
}

// layout distributes the terminal size across the header, body, and footer.
func (m *Model) layout() {
	bodyH := m.height - 2
	if bodyH < 3 {
		bodyH = 3
	}
	m.overview.setSize(m.width, bodyH)
	m.explorer.setSize(m.width, bodyH)
	m.features.setSize(m.width, bodyH)
	m.sponsors.setSize(m.width, bodyH)
	m.assistpnl.setSize(m.width, bodyH)
	m.detail.setSize(m.width, m.height)
}

func (m *Model) setStatus(text string) {
	m.statusMsg = text
	m.statusIsError = false
}

func (m *Model) setStatusError(text string) {
	m.statusMsg = text
	m.statusIsError = true
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	bodyH := m.height - 2
	if bodyH < 3 {
		bodyH = 3
	}

	var body string
	switch {
	case m.showQuitConfirm:
		body = m.renderQuitConfirm(bodyH)
	case m.showHelp:
		body = m.renderHelpOverlay(bodyH)
	case m.showDetail:
		body = m.detail.CenterModal(m.width, bodyH)
	default:
		body = m.renderActiveTab(bodyH)
	}

	header := m.renderTabBar()
	footer := m.renderFooter()

	// Force the final output to fit the terminal exactly so the header is
	// never pushed off the top.
	finalStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)

	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

func (m Model) renderActiveTab(bodyH int) string {
	var view string
	switch m.tab {
	case TabOverview:
		view = m.overview.View(m.agg, m.correlations, m.analyticsLoading, m.analyticsErr)
	case TabExplorer:
		view = m.explorer.View(m.store)
	case TabFeatures:
		view = m.features.View()
	case TabSponsors:
		view = m.sponsors.View(m.agg)
	case TabAssistant:
		view = m.assistpnl.View()
	}
	return lipgloss.NewStyle().Height(bodyH).MaxHeight(bodyH).Render(view)
}

func (m Model) renderTabBar() string {
	t := m.theme

	brandStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Padding(0, 1)
	activeStyle := t.Header
	inactiveStyle := t.Renderer.NewStyle().
		Foreground(t.Muted).
		Padding(0, 1)

	parts := make([]string, 0, int(tabCount)+1)
	parts = append(parts, brandStyle.Render("ptscope"))
	for tab := TabOverview; tab < tabCount; tab++ {
		label := fmt.Sprintf("%d %s", int(tab)+1, tab.Title())
		if tab == m.tab {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, inactiveStyle.Render(label))
		}
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if w := lipgloss.Width(bar); w < m.width {
		bar += lipgloss.NewStyle().Width(m.width - w).Render("")
	}
	return bar
}

func (m Model) renderFooter() string {
	t := m.theme

	// A status message takes over the whole footer until the next keypress.
	if m.statusMsg != "" {
		var msgStyle lipgloss.Style
		if m.statusIsError {
			msgStyle = t.Renderer.NewStyle().
				Foreground(t.Danger).
				Bold(true).
				Padding(0, 2)
		} else {
			msgStyle = t.Renderer.NewStyle().
				Foreground(t.Success).
				Bold(true).
				Padding(0, 2)
		}
		msgSection := msgStyle.Render(m.statusMsg)
		remaining := m.width - lipgloss.Width(msgSection)
		if remaining < 0 {
			remaining = 0
		}
		return lipgloss.JoinHorizontal(lipgloss.Bottom, msgSection, lipgloss.NewStyle().Width(remaining).Render(""))
	}

	badgeStyle := t.Renderer.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	statsStyle := t.Renderer.NewStyle().
		Foreground(t.Subtext).
		Padding(0, 1)
	keyStyle := t.Renderer.NewStyle().Foreground(t.Secondary)
	sepStyle := t.Renderer.NewStyle().Foreground(t.Muted)

	// Filter badge
	filterBadge := badgeStyle.Render("🔎 " + m.store.Filter.Describe())

	// Stats: risk mix of the current filtered set, plus fetch phase
	var stats string
	switch m.store.Phase() {
	case store.PhaseLoading:
		stats = statsStyle.Render("loading…")
	case store.PhaseError:
		stats = t.Renderer.NewStyle().Foreground(t.Danger).Padding(0, 1).Render("fetch failed")
	default:
		high, med, low := riskCounts(m.store)
		highStyle := t.Renderer.NewStyle().Foreground(t.RiskHigh)
		medStyle := t.Renderer.NewStyle().Foreground(t.RiskMedium)
		lowStyle := t.Renderer.NewStyle().Foreground(t.RiskLow)
		stats = statsStyle.Render(fmt.Sprintf("%d trials  %s%d %s%d %s%d",
			m.store.Total(),
			highStyle.Render("●"), high,
			medStyle.Render("◐"), med,
			lowStyle.Render("○"), low))
	}

	// Context-aware key hints
	sep := sepStyle.Render(" │ ")
	var hints []string
	switch {
	case m.showHelp:
		hints = append(hints, "Press any key to close")
	case m.showDetail:
		hints = append(hints, keyStyle.Render("esc")+" close", keyStyle.Render("r")+" retry")
	case m.tab == TabExplorer && m.explorer.searching:
		hints = append(hints, keyStyle.Render("⏎")+" apply", keyStyle.Render("esc")+" cancel")
	case m.tab == TabExplorer:
		hints = append(hints, keyStyle.Render("/")+" search", keyStyle.Render("ftp")+" filters", keyStyle.Render("⏎")+" detail", keyStyle.Render("?")+" help")
	case m.tab == TabFeatures:
		hints = append(hints, keyStyle.Render("j/k")+" pick", keyStyle.Render("⏎")+" explain", keyStyle.Render("?")+" help")
	case m.tab == TabSponsors:
		hints = append(hints, keyStyle.Render("h/l")+" panels", keyStyle.Render("j/k")+" nav", keyStyle.Render("?")+" help")
	case m.tab == TabAssistant && m.assistpnl.input.Focused():
		hints = append(hints, keyStyle.Render("⏎")+" send", keyStyle.Render("esc")+" done", keyStyle.Render("ctrl+l")+" clear")
	case m.tab == TabAssistant:
		hints = append(hints, keyStyle.Render("i")+" ask", keyStyle.Render("j/k")+" scroll", keyStyle.Render("?")+" help")
	default:
		hints = append(hints, keyStyle.Render("tab")+" views", keyStyle.Render("r")+" refresh", keyStyle.Render("?")+" help")
	}

	hintSection := ""
	for i, h := range hints {
		if i > 0 {
			hintSection += sep
		}
		hintSection += h
	}

	source := statsStyle.Render(m.sourceName)

	left := lipgloss.JoinHorizontal(lipgloss.Bottom, filterBadge, stats)
	right := lipgloss.JoinHorizontal(lipgloss.Bottom, hintSection, sep, source)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

// riskCounts buckets the filtered trials by risk band.
func riskCounts(s *store.Store) (high, med, low int) {
	for _, t := range s.Filtered() {
		switch analytics.DefaultThresholds.Band(t.PTS) {
		case "high":
			high++
		case "low":
			low++
		default:
			med++
		}
	}
	return high, med, low
}
