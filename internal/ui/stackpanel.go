package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/theme"
)

// StackPanel shows the back and forward stacks of the focused window.
type StackPanel struct {
	stacks  history.Stacks
	titles  map[history.TabID]string
	window  history.WindowID
	width   int
	height  int
	visible bool
}

// NewStackPanel creates a hidden stack panel.
func NewStackPanel() StackPanel {
	return StackPanel{}
}

// SetSize updates the panel dimensions.
func (sp *StackPanel) SetSize(w, h int) {
	sp.width = w
	sp.height = h
}

// SetStacks replaces the displayed stacks. titles labels tab ids; ids with
// no title are shown bare.
func (sp *StackPanel) SetStacks(w history.WindowID, stacks history.Stacks, titles map[history.TabID]string) {
	sp.window = w
	sp.stacks = stacks
	sp.titles = titles
}

// Toggle switches visibility.
func (sp *StackPanel) Toggle() {
	sp.visible = !sp.visible
}

// IsVisible reports whether the panel is shown.
func (sp *StackPanel) IsVisible() bool {
	return sp.visible
}

func (sp *StackPanel) label(id history.TabID) string {
	if title, ok := sp.titles[id]; ok && title != "" {
		return fmt.Sprintf("%d %s", id, title)
	}
	return fmt.Sprintf("%d (closed)", id)
}

// View renders the panel. The back stack is listed newest first, so the
// entry under the current tab is the one "back" will activate.
func (sp *StackPanel) View() string {
	if !sp.visible {
		return ""
	}

	t := theme.Current

	panelStyle := lipgloss.NewStyle().
		Width(sp.width).
		Height(sp.height).
		Background(t.Background)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Background(t.Surface).
		Width(sp.width).
		Padding(0, 1)

	headingStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Padding(0, 1)

	currentStyle := lipgloss.NewStyle().
		Foreground(t.TextBright).
		Background(t.TabActive).
		Bold(true).
		Width(sp.width).
		Padding(0, 1)

	backStyle := lipgloss.NewStyle().
		Foreground(t.StackBack).
		Padding(0, 1)

	fwdStyle := lipgloss.NewStyle().
		Foreground(t.StackForward).
		Padding(0, 1)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Padding(0, 1)

	maxLen := max(sp.width-6, 8)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Stacks · window #%d", sp.window)))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", max(sp.width-2, 1))))
	sb.WriteString("\n")

	if len(sp.stacks.Back) == 0 {
		sb.WriteString(dimStyle.Render("No history for this window."))
		return panelStyle.Render(sb.String())
	}

	sb.WriteString(headingStyle.Render(fmt.Sprintf("forward (%d)", len(sp.stacks.Forward))))
	sb.WriteString("\n")
	if len(sp.stacks.Forward) == 0 {
		sb.WriteString(dimStyle.Render("  empty"))
		sb.WriteString("\n")
	}
	// Forward's top is the next tab to roll forward to; list it nearest the
	// current entry.
	for _, id := range sp.stacks.Forward {
		sb.WriteString(fwdStyle.Render("↑ " + truncate(sp.label(id), maxLen)))
		sb.WriteString("\n")
	}

	back := slices.Clone(sp.stacks.Back)
	slices.Reverse(back)
	sb.WriteString(headingStyle.Render(fmt.Sprintf("back (%d)", len(back))))
	sb.WriteString("\n")
	for i, id := range back {
		if i == 0 {
			sb.WriteString(currentStyle.Render("▸ " + truncate(sp.label(id), maxLen)))
		} else {
			sb.WriteString(backStyle.Render("↓ " + truncate(sp.label(id), maxLen)))
		}
		sb.WriteString("\n")
	}

	return panelStyle.Render(sb.String())
}
