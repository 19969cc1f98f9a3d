package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// MarkdownRenderer provides theme-aware markdown rendering using glamour.
// It detects the terminal's color scheme and picks a matching style.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	isDark   bool
}

// NewMarkdownRenderer creates a markdown renderer wrapped at width. Dark
// terminals get the Dracula style to match the rest of the UI.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	isDark := lipgloss.HasDarkBackground()

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStylePath(styleName(isDark)),
		glamour.WithWordWrap(width),
	)

	return &MarkdownRenderer{
		renderer: renderer,
		width:    width,
		isDark:   isDark,
	}
}

func styleName(isDark bool) string {
	if isDark {
		return "dracula"
	}
	return "light"
}

// Render converts markdown content to styled terminal output. A nil inner
// renderer (style load failure) falls back to the raw markdown.
func (mr *MarkdownRenderer) Render(markdown string) (string, error) {
	if mr.renderer == nil {
		return markdown, nil
	}
	return mr.renderer.Render(markdown)
}

// SetWidth updates the word wrap width and recreates the renderer. Width is
// only updated if the new renderer is created successfully.
func (mr *MarkdownRenderer) SetWidth(width int) {
	if width == mr.width || width <= 0 {
		return
	}
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(styleName(mr.isDark)),
		glamour.WithWordWrap(width),
	); err == nil {
		mr.renderer = r
		mr.width = width
	}
}

// IsDarkMode returns whether the renderer is using dark mode styling.
func (mr *MarkdownRenderer) IsDarkMode() bool {
	return mr.isDark
}
