package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/theme"
)

// URLBar shows the active tab of the focused window. Focusing it turns it
// into a prompt for the URL of a new tab.
type URLBar struct {
	input   textinput.Model
	active  bool
	width   int
	shown   host.Tab
	tracked bool
}

func NewURLBar() URLBar {
	ti := textinput.New()
	ti.Placeholder = "URL or search (empty for a blank tab)"
	ti.CharLimit = 2048
	ti.Width = 60
	return URLBar{input: ti, tracked: true}
}

func (u *URLBar) SetWidth(w int) {
	u.width = w
	u.input.Width = w - 12
}

// Show sets the tab displayed while the bar is idle. tracked is false for
// windows whose history is not recorded.
func (u *URLBar) Show(tab host.Tab, tracked bool) {
	u.shown = tab
	u.tracked = tracked
}

// Focus starts a new-tab prompt with an empty line.
func (u *URLBar) Focus() tea.Cmd {
	u.active = true
	u.input.Reset()
	return u.input.Focus()
}

func (u *URLBar) Blur() {
	u.active = false
	u.input.Blur()
}

func (u *URLBar) IsActive() bool {
	return u.active
}

// Value returns the typed text.
func (u *URLBar) Value() string {
	return u.input.Value()
}

func (u *URLBar) Update(msg tea.Msg) (*URLBar, tea.Cmd) {
	if !u.active {
		return u, nil
	}
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}

func (u *URLBar) View() string {
	t := theme.Current

	border := t.Border
	if u.active {
		border = t.BorderFocus
	}
	bar := lipgloss.NewStyle().
		Background(t.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(u.width - 2)
	prompt := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)

	if u.active {
		return bar.Foreground(t.Text).Render(prompt.Render("new tab") + " " + u.input.View())
	}

	url := u.shown.URL
	if url == "" {
		url = "(blank)"
	}
	line := prompt.Render("url") + " " + lipgloss.NewStyle().Foreground(t.TextDim).Render(url)
	if !u.tracked {
		line += " " + lipgloss.NewStyle().Foreground(t.Warning).Render("[untracked]")
	}
	return bar.Render(truncateStyled(line, u.width-4))
}

// truncateStyled clips rendered text to w cells.
func truncateStyled(s string, w int) string {
	if w <= 0 || lipgloss.Width(s) <= w {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(w).Render(s)
}
