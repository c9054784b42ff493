package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/theme"
)

// Pane is the scrollable main area. It shows the help page or the active
// tab's details.
type Pane struct {
	viewport   viewport.Model
	ready      bool
	contentSet bool
	content    string
}

// NewPane creates a pane. Dimensions are set on the first WindowSizeMsg.
func NewPane() Pane {
	return Pane{}
}

// SetSize updates the pane dimensions.
func (p *Pane) SetSize(width, height int) {
	if !p.ready {
		p.viewport = viewport.New(width, height)
		p.viewport.MouseWheelEnabled = true
		p.viewport.MouseWheelDelta = 3
		p.ready = true
		return
	}
	p.viewport.Width = width
	p.viewport.Height = height
}

// SetContent replaces the pane content and scrolls to the top. Setting the
// content already shown keeps the scroll position.
func (p *Pane) SetContent(content string) {
	if !p.ready || (p.contentSet && content == p.content) {
		return
	}
	p.viewport.SetContent(content)
	p.content = content
	p.contentSet = true
	p.viewport.GotoTop()
}

// ClearContent returns the pane to its welcome screen.
func (p *Pane) ClearContent() {
	p.contentSet = false
	p.content = ""
}

// Update forwards messages to the viewport.
func (p *Pane) Update(msg tea.Msg) (*Pane, tea.Cmd) {
	if !p.ready {
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// View renders the pane.
func (p *Pane) View() string {
	if !p.ready {
		return "\n  Initializing..."
	}
	if !p.contentSet {
		return p.renderWelcome()
	}
	return p.viewport.View()
}

// ScrollInfo returns "TOP", "BOT" or a percentage.
func (p *Pane) ScrollInfo() string {
	if !p.ready {
		return "TOP"
	}
	pct := p.viewport.ScrollPercent()
	switch {
	case pct <= 0:
		return "TOP"
	case pct >= 1:
		return "BOT"
	default:
		return fmt.Sprintf("%d%%", int(pct*100))
	}
}

// LineDown scrolls down n lines.
func (p *Pane) LineDown(n int) {
	if p.ready {
		p.viewport.LineDown(n)
	}
}

// LineUp scrolls up n lines.
func (p *Pane) LineUp(n int) {
	if p.ready {
		p.viewport.LineUp(n)
	}
}

// Width returns the pane width.
func (p *Pane) Width() int {
	if !p.ready {
		return 0
	}
	return p.viewport.Width
}

func (p *Pane) renderWelcome() string {
	t := theme.Current

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	accentStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Secondary)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Text)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("  ◀ tabroll ▶"))
	sb.WriteString("\n\n")
	sb.WriteString(subtitleStyle.Render("  Back and forward through the tabs you actually used"))
	sb.WriteString("\n\n")
	sb.WriteString(accentStyle.Render("  Quick Start"))
	sb.WriteString("\n\n")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"[ / alt+left", "Roll back to the previous tab"},
		{"] / alt+right", "Roll forward again"},
		{"ctrl+l", "Clear every window's stacks"},
		{"o / ctrl+t", "Open a tab"},
		{"tab / 1-9", "Switch tabs"},
		{"s", "Show the stacks"},
		{"?", "All keybindings"},
		{"q", "Quit"},
	}

	for _, s := range shortcuts {
		sb.WriteString(keyStyle.Render(fmt.Sprintf("  %-16s", s.key)))
		sb.WriteString(descStyle.Render(s.desc))
		sb.WriteString("\n")
	}

	return sb.String()
}
