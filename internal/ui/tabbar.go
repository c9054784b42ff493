package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/theme"
)

// span is the horizontal cell range [start, end) a rendered item occupies.
type span struct {
	start, end int
	id         int
}

func hit(spans []span, x int) (int, bool) {
	for _, s := range spans {
		if x >= s.start && x < s.end {
			return s.id, true
		}
	}
	return 0, false
}

// TabBar renders the tabs of the focused window.
type TabBar struct {
	tabs       []host.Tab
	width      int
	maxVisible int
	spans      []span
}

// NewTabBar creates an empty tab bar.
func NewTabBar() TabBar {
	return TabBar{maxVisible: 8}
}

// SetWidth sets the tab bar width.
func (tb *TabBar) SetWidth(w int) {
	tb.width = w
	tb.maxVisible = min(max(w/20, 2), 10)
}

// SetTabs replaces the displayed tabs.
func (tb *TabBar) SetTabs(tabs []host.Tab) {
	tb.tabs = tabs
}

// Active returns the index of the active tab, or -1.
func (tb *TabBar) Active() int {
	for i, t := range tb.tabs {
		if t.Active {
			return i
		}
	}
	return -1
}

// Count returns the number of tabs.
func (tb *TabBar) Count() int {
	return len(tb.tabs)
}

// TabAt returns the tab rendered at column x by the last View call.
func (tb *TabBar) TabAt(x int) (history.TabID, bool) {
	id, ok := hit(tb.spans, x)
	return history.TabID(id), ok
}

// View renders the tab bar.
func (tb *TabBar) View() string {
	t := theme.Current

	activeStyle := lipgloss.NewStyle().
		Foreground(t.TextBright).
		Background(t.TabActive).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.TabInactive).
		Padding(0, 1)

	separatorStyle := lipgloss.NewStyle().
		Foreground(t.Border)

	overflowStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	active := max(tb.Active(), 0)
	start, end := 0, len(tb.tabs)
	if end > tb.maxVisible {
		start = max(active-tb.maxVisible/2, 0)
		end = start + tb.maxVisible
		if end > len(tb.tabs) {
			end = len(tb.tabs)
			start = max(end-tb.maxVisible, 0)
		}
	}

	tb.spans = nil
	var result string
	if start > 0 {
		result += overflowStyle.Render(fmt.Sprintf(" +%d ", start))
	}

	maxTitleLen := max((tb.width/max(tb.maxVisible, 1))-6, 8)
	for i := start; i < end; i++ {
		tab := tb.tabs[i]
		label := fmt.Sprintf("%d %s", i+1, truncate(tab.Title, maxTitleLen))

		var cell string
		if tab.Active {
			cell = activeStyle.Render(label)
		} else {
			cell = inactiveStyle.Render(label)
		}
		x := lipgloss.Width(result)
		tb.spans = append(tb.spans, span{start: x, end: x + lipgloss.Width(cell), id: int(tab.ID)})
		result += cell

		if i < end-1 {
			result += separatorStyle.Render("|")
		}
	}

	if end < len(tb.tabs) {
		result += overflowStyle.Render(fmt.Sprintf(" +%d ", len(tb.tabs)-end))
	}

	barStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Width(tb.width)

	return barStyle.Render(result)
}

// truncate shortens s to n runes, marking the cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
