package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bheem-platform/workspace-cli/internal/theme"
)

// Layout manages the terminal frame: header bar, content area, an
// optional error banner, and the status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar: title on the left, session/unread
// status on the right.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.Align(lipgloss.Right).Render(status)

	gap := l.Width - lipgloss.Width(titleRendered) - lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, statusRendered)
}

// RenderErrorBanner renders a full-width dismissible error line, or ""
// when there is no error. It sits between the header and the content
// of the affected view only.
func (l Layout) RenderErrorBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return theme.ErrorBannerStyle.Width(l.Width).Render(msg + "  (press esc to dismiss)")
}

// RenderStatusBar renders the bottom bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes the full terminal view. banner may be "".
func (l Layout) RenderWithFrame(header, banner, content, statusBar string) string {
	if banner == "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, banner, content, statusBar)
}
