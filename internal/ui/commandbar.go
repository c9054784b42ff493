package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/theme"
)

const maxRecall = 50

// recall is the command history, newest last. pos counts back from the
// newest entry; -1 means the user is editing a fresh line.
type recall struct {
	lines []string
	pos   int
}

func (r *recall) add(line string) {
	if n := len(r.lines); n > 0 && r.lines[n-1] == line {
		return
	}
	r.lines = append(r.lines, line)
	if len(r.lines) > maxRecall {
		r.lines = r.lines[len(r.lines)-maxRecall:]
	}
}

func (r *recall) older() (string, bool) {
	if len(r.lines) == 0 {
		return "", false
	}
	r.pos = min(r.pos+1, len(r.lines)-1)
	return r.lines[len(r.lines)-1-r.pos], true
}

func (r *recall) newer() (string, bool) {
	if r.pos <= 0 {
		r.pos = -1
		return "", false
	}
	r.pos--
	return r.lines[len(r.lines)-1-r.pos], true
}

// CommandBar takes ":" commands such as roll-left or theme nord. Command
// names are offered as tab completions.
type CommandBar struct {
	input   textinput.Model
	active  bool
	width   int
	history recall
}

// NewCommandBar creates a command bar completing the given command names.
func NewCommandBar(names ...string) CommandBar {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = ":"
	ti.Placeholder = strings.Join(names, ", ")
	ti.ShowSuggestions = true
	ti.SetSuggestions(names)

	return CommandBar{input: ti, history: recall{pos: -1}}
}

// SetWidth sets the command bar width.
func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = w - 4
}

// Open focuses an empty command line.
func (c *CommandBar) Open() tea.Cmd {
	c.active = true
	c.input.Reset()
	c.history.pos = -1
	return c.input.Focus()
}

// Close hides the bar and discards the line.
func (c *CommandBar) Close() {
	c.active = false
	c.input.Blur()
	c.input.Reset()
}

func (c *CommandBar) IsActive() bool {
	return c.active
}

// Submit closes the bar and returns the command name and its arguments.
func (c *CommandBar) Submit() (string, []string) {
	line := strings.TrimSpace(c.input.Value())
	c.Close()
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	c.history.add(line)
	return fields[0], fields[1:]
}

// Update handles editing keys. Enter is left to the caller; Esc closes.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if !c.active {
		return c, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEsc:
			c.Close()
			return c, nil
		case tea.KeyEnter:
			return c, nil
		case tea.KeyUp:
			if line, ok := c.history.older(); ok {
				c.input.SetValue(line)
				c.input.CursorEnd()
			}
			return c, nil
		case tea.KeyDown:
			if line, ok := c.history.newer(); ok {
				c.input.SetValue(line)
				c.input.CursorEnd()
			} else {
				c.input.Reset()
			}
			return c, nil
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the bar, or nothing while closed.
func (c *CommandBar) View() string {
	if !c.active {
		return ""
	}
	t := theme.Current
	return lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Width(c.width).
		Render(c.input.View())
}
