package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/theme"
)

// WindowBar renders the strip of open windows.
type WindowBar struct {
	windows []host.Window
	width   int
	spans   []span
}

// NewWindowBar creates an empty window strip.
func NewWindowBar() WindowBar {
	return WindowBar{}
}

// SetWidth sets the strip width.
func (wb *WindowBar) SetWidth(w int) {
	wb.width = w
}

// SetWindows replaces the displayed windows.
func (wb *WindowBar) SetWindows(windows []host.Window) {
	wb.windows = windows
}

// WindowAt returns the window rendered at column x by the last View call.
func (wb *WindowBar) WindowAt(x int) (history.WindowID, bool) {
	id, ok := hit(wb.spans, x)
	return history.WindowID(id), ok
}

// View renders the window strip.
func (wb *WindowBar) View() string {
	t := theme.Current

	labelStyle := lipgloss.NewStyle().
		Foreground(t.Primary).
		Background(t.Background).
		Bold(true).
		Padding(0, 1)

	focusedStyle := lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Secondary).
		Bold(true).
		Padding(0, 1)

	normalStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Background).
		Padding(0, 1)

	popupStyle := normalStyle.
		Foreground(t.TextDim).
		Italic(true)

	result := labelStyle.Render("windows")
	wb.spans = nil
	for _, w := range wb.windows {
		label := fmt.Sprintf("#%d", w.ID)
		if !w.IsNormal() {
			label += " " + string(w.Type)
		}
		label += fmt.Sprintf(" (%d)", len(w.Tabs))

		style := normalStyle
		switch {
		case w.Focused:
			style = focusedStyle
		case !w.IsNormal():
			style = popupStyle
		}
		cell := style.Render(label)
		x := lipgloss.Width(result)
		wb.spans = append(wb.spans, span{start: x, end: x + lipgloss.Width(cell), id: int(w.ID)})
		result += cell
	}

	if len(wb.windows) == 0 {
		result += normalStyle.Foreground(t.TextDim).Render("none, ctrl+n opens one")
	}

	return lipgloss.NewStyle().
		Background(t.Background).
		Width(wb.width).
		Render(result)
}
