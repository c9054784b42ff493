package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/theme"
)

// BackButtonLabel is the text of the toolbar button.
const BackButtonLabel = "◀ back"

// StatusBar shows the mode, the back button, a message and stack depths at
// the bottom of the screen.
type StatusBar struct {
	mode       string
	message    string
	isError    bool
	backDepth  int
	fwdDepth   int
	suppressed bool
	width      int
	button     span
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{mode: "NORMAL"}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetMode sets the current mode indicator.
func (s *StatusBar) SetMode(mode string) {
	s.mode = mode
}

// SetMessage sets a temporary status message.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
	s.isError = false
}

// SetError shows msg as an error.
func (s *StatusBar) SetError(msg string) {
	s.message = msg
	s.isError = true
}

// Message returns the current message.
func (s *StatusBar) Message() string {
	return s.message
}

// SetDepths sets the back and forward stack sizes of the focused window.
func (s *StatusBar) SetDepths(back, forward int) {
	s.backDepth = back
	s.fwdDepth = forward
}

// SetSuppressed shows whether activations are currently being ignored.
func (s *StatusBar) SetSuppressed(on bool) {
	s.suppressed = on
}

// BackButtonAt reports whether column x hits the back button as drawn by
// the last View call.
func (s *StatusBar) BackButtonAt(x int) bool {
	return x >= s.button.start && x < s.button.end
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	modeStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(t.Background)

	switch s.mode {
	case "NORMAL":
		modeStyle = modeStyle.Background(t.Primary)
	case "INSERT":
		modeStyle = modeStyle.Background(t.Success)
	case "COMMAND":
		modeStyle = modeStyle.Background(t.Accent)
	case "HELP":
		modeStyle = modeStyle.Background(t.Info)
	default:
		modeStyle = modeStyle.Background(t.Secondary)
	}
	mode := modeStyle.Render(s.mode)

	buttonStyle := lipgloss.NewStyle().
		Foreground(t.TextBright).
		Background(t.TabActive).
		Bold(true).
		Padding(0, 1).
		MarginLeft(1)
	if s.backDepth < 2 {
		buttonStyle = buttonStyle.
			Foreground(t.TextDim).
			Background(t.TabInactive)
	}
	button := buttonStyle.Render(BackButtonLabel)
	modeWidth := lipgloss.Width(mode)
	// The margin is not part of the clickable area.
	s.button = span{start: modeWidth + 1, end: modeWidth + lipgloss.Width(button)}

	barStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface)

	var left string
	if s.message != "" {
		msgStyle := lipgloss.NewStyle().
			Foreground(t.Info).
			Background(t.Surface).
			Padding(0, 1)
		if s.isError {
			msgStyle = msgStyle.Foreground(t.Error)
		}
		left = msgStyle.Render(s.message)
	}

	rightStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface).
		Padding(0, 1)
	right := rightStyle.Render(fmt.Sprintf("back %d · fwd %d", s.backDepth, s.fwdDepth))
	if s.suppressed {
		right = lipgloss.NewStyle().
			Foreground(t.Warning).
			Background(t.Surface).
			Bold(true).
			Padding(0, 1).
			Render("rolling") + right
	}

	spacerWidth := max(s.width-modeWidth-lipgloss.Width(button)-lipgloss.Width(left)-lipgloss.Width(right), 0)
	spacer := lipgloss.NewStyle().
		Background(t.Surface).
		Render(fmt.Sprintf("%*s", spacerWidth, ""))

	return barStyle.Render(mode + button + left + spacer + right)
}
