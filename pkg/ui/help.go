package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderHelpOverlay(bodyH int) string {
	t := m.theme

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)

	sectionStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Bold(true).
		MarginTop(1)

	keyStyle := t.Renderer.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"}).
		Bold(true).
		Width(12)

	descStyle := t.Renderer.NewStyle().
		Foreground(t.Base.GetForeground())

	section := func(sb *strings.Builder, name string, keys []struct{ key, desc string }) {
		sb.WriteString(sectionStyle.Render(name))
		sb.WriteString("\n")
		for _, s := range keys {
			sb.WriteString(keyStyle.Render(s.key) + descStyle.Render(s.desc) + "\n")
		}
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("⌨️  Keyboard Shortcuts"))
	sb.WriteString("\n\n")

	section(&sb, "Navigation", []struct{ key, desc string }{
		{"Tab", "Next tab"},
		{"Shift+Tab", "Previous tab"},
		{"1-5", "Jump to tab"},
		{"j / ↓", "Move down"},
		{"k / ↑", "Move up"},
		{"Enter", "Open / confirm"},
		{"Esc", "Back / close"},
	})

	sb.WriteString("\n")
	section(&sb, "Explorer", []struct{ key, desc string }{
		{"/", "Search trials"},
		{"f", "Cycle status filter"},
		{"t", "Cycle therapeutic area"},
		{"p", "Cycle sponsor"},
		{"s / o", "Sort field / direction"},
		{"[ ] { }", "Nudge PTS range"},
		{"h / l", "Previous / next page"},
		{"x", "Clear all filters"},
		{"c / C", "Copy ID / copy as Markdown"},
		{"r", "Refresh trials"},
	})

	sb.WriteString("\n")
	section(&sb, "Features", []struct{ key, desc string }{
		{"j / k", "Pick trial"},
		{"Enter", "Load attribution"},
		{"r", "Retry failed fetch"},
	})

	sb.WriteString("\n")
	section(&sb, "Assistant", []struct{ key, desc string }{
		{"i", "Focus question input"},
		{"Enter", "Send question"},
		{"Ctrl+l", "Clear conversation"},
	})

	sb.WriteString("\n")
	section(&sb, "General", []struct{ key, desc string }{
		{"?", "Toggle this help"},
		{"q", "Quit (with confirm)"},
		{"Ctrl+c", "Force quit"},
	})

	sb.WriteString("\n")
	sb.WriteString(t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true).Render("Press any key to close"))

	helpBox := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 3).
		Render(sb.String())

	return lipgloss.Place(
		m.width,
		bodyH,
		lipgloss.Center,
		lipgloss.Center,
		helpBox,
	)
}

func (m Model) renderQuitConfirm(bodyH int) string {
	t := m.theme

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Danger).
		Padding(1, 3).
		Align(lipgloss.Center)

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Danger).
		Bold(true)

	textStyle := t.Renderer.NewStyle().
		Foreground(t.Base.GetForeground())

	keyStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	content := titleStyle.Render("Quit ptscope?") + "\n\n" +
		textStyle.Render("Press ") + keyStyle.Render("Esc") + textStyle.Render(" or ") + keyStyle.Render("Y") + textStyle.Render(" to quit\n") +
		textStyle.Render("Press any other key to cancel")

	box := boxStyle.Render(content)

	return lipgloss.Place(
		m.width,
		bodyH,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}
