package main_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/ptscope/ptscope/pkg/export"
	"github.com/ptscope/ptscope/pkg/ui"
)

// TestE2E_DashboardOverHTTP boots the full stack in one process: the mock
// analytics service behind an HTTP listener, the real gateway client, and
// the dashboard program running headless. After the initial fetches land the
// explorer must show the portfolio.
func TestE2E_DashboardOverHTTP(t *testing.T) {
	baseURL := startService(t)

	m := ui.NewModel(ui.Config{
		Gateway:    newGateway(t, baseURL),
		PageSize:   20,
		SourceName: "e2e-service",
	})
	p := tea.NewProgram(m,
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
	)

	go func() {
		p.Send(tea.WindowSizeMsg{Width: 140, Height: 45})
		// Give the trial and analytics fetches time to round-trip.
		time.Sleep(1500 * time.Millisecond)
		p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
		time.Sleep(200 * time.Millisecond)
		p.Send(tea.Quit())
	}()

	final, err := p.Run()
	require.NoError(t, err)

	fm, ok := final.(ui.Model)
	require.True(t, ok, "final model should be ui.Model, got %T", final)

	view := fm.View()
	require.Contains(t, view, "e2e-service")
	require.Contains(t, view, "NCT30000001")
	require.Contains(t, view, "Novarex")
}

// TestE2E_ReportExports fetches the portfolio over HTTP and writes every
// report format, checking each artifact is well formed.
func TestE2E_ReportExports(t *testing.T) {
	baseURL := startService(t)
	gw := newGateway(t, baseURL)
	ctx := testContext(t)

	trials, err := gw.ListTrials(ctx, nil)
	require.NoError(t, err)
	require.Len(t, trials, len(e2eTrials()))

	snap, err := gw.Analytics(ctx)
	require.NoError(t, err)

	dir := t.TempDir()

	mdPath := filepath.Join(dir, "report.md")
	require.NoError(t, export.SaveMarkdownToFile(trials, snap, mdPath))
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	require.Contains(t, string(md), "# Clinical Trial PTS Report")
	require.Contains(t, string(md), "NCT30000005")

	csvPath := filepath.Join(dir, "trials.csv")
	require.NoError(t, export.SaveCSVToFile(trials, csvPath))
	raw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, len(trials)+1, "header plus one row per trial")

	pdfPath := filepath.Join(dir, "report.pdf")
	require.NoError(t, export.SavePDFToFile(trials, snap, pdfPath))
	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "PDF magic bytes missing")

	pngPath := filepath.Join(dir, "pts_histogram.png")
	require.NoError(t, export.SaveHistogramPNG(snap, pngPath))
	png, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")), "PNG magic bytes missing")
}
