package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	require.Equal(t, "ab", truncate("abcdef", 2))
	require.Equal(t, "héllo", truncate("héllo", 5))
}

func TestTabBarHitTest(t *testing.T) {
	tb := NewTabBar()
	tb.SetWidth(120)
	tb.SetTabs([]host.Tab{
		{ID: 7, Title: "one"},
		{ID: 9, Title: "two", Active: true},
	})
	view := tb.View()
	require.Contains(t, view, "one")
	require.Equal(t, 1, tb.Active())

	id, ok := tb.TabAt(1)
	require.True(t, ok)
	require.Equal(t, history.TabID(7), id)

	second := tb.spans[1]
	id, ok = tb.TabAt(second.start)
	require.True(t, ok)
	require.Equal(t, history.TabID(9), id)

	_, ok = tb.TabAt(second.end + 5)
	require.False(t, ok)
}

func TestWindowBarHitTest(t *testing.T) {
	wb := NewWindowBar()
	wb.SetWidth(100)
	wb.SetWindows([]host.Window{
		{ID: 1, Type: host.WindowNormal, Focused: true, Tabs: []host.Tab{{ID: 1}}},
		{ID: 2, Type: host.WindowPopup, Tabs: []host.Tab{{ID: 2}}},
	})
	view := wb.View()
	require.Contains(t, view, "popup")

	_, ok := wb.WindowAt(0)
	require.False(t, ok, "the label is not a window")
	id, ok := wb.WindowAt(wb.spans[1].start)
	require.True(t, ok)
	require.Equal(t, history.WindowID(2), id)
}

func TestStatusBarBackButton(t *testing.T) {
	s := NewStatusBar()
	s.SetWidth(80)
	s.SetDepths(3, 1)
	view := s.View()
	require.Contains(t, view, BackButtonLabel)
	require.Contains(t, view, "back 3 · fwd 1")
	require.Equal(t, 80, lipgloss.Width(view))

	modeWidth := lipgloss.Width(" NORMAL ")
	require.False(t, s.BackButtonAt(0))
	require.False(t, s.BackButtonAt(modeWidth), "margin is not clickable")
	require.True(t, s.BackButtonAt(modeWidth+1))
	require.True(t, s.BackButtonAt(modeWidth+1+lipgloss.Width(BackButtonLabel)))
	require.False(t, s.BackButtonAt(60))
}

func TestStackPanelOrdering(t *testing.T) {
	sp := NewStackPanel()
	sp.SetSize(40, 20)
	require.Empty(t, sp.View())

	sp.Toggle()
	sp.SetStacks(1, history.Stacks{Back: []history.TabID{1, 2, 3}, Forward: []history.TabID{4}},
		map[history.TabID]string{1: "alpha", 3: "gamma", 4: "delta"})
	view := sp.View()

	gamma := strings.Index(view, "gamma")
	beta := strings.Index(view, "2 (closed)")
	alpha := strings.Index(view, "alpha")
	delta := strings.Index(view, "delta")
	require.True(t, delta >= 0 && delta < gamma, "forward is listed above the current tab")
	require.True(t, gamma < beta && beta < alpha, "back is listed newest first")
}

func TestCommandBarSubmitAndRecall(t *testing.T) {
	c := NewCommandBar("roll-left", "theme")
	c.SetWidth(80)

	c.Open()
	c.input.SetValue("  theme   nord ")
	name, args := c.Submit()
	require.Equal(t, "theme", name)
	require.Equal(t, []string{"nord"}, args)
	require.False(t, c.IsActive())

	c.Open()
	c.input.SetValue("roll-left")
	c.Submit()
	c.Open()
	c.input.SetValue("roll-left")
	c.Submit()
	require.Len(t, c.history.lines, 2)

	c.Open()
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "roll-left", c.input.Value())
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "theme   nord", c.input.Value())
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "theme   nord", c.input.Value())
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "roll-left", c.input.Value())
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "", c.input.Value())

	c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, c.IsActive())
	name, _ = c.Submit()
	require.Empty(t, name)
}

func TestURLBarShowsUntrackedWindows(t *testing.T) {
	u := NewURLBar()
	u.SetWidth(80)

	u.Show(host.Tab{URL: "https://go.dev"}, true)
	require.Contains(t, u.View(), "https://go.dev")
	require.NotContains(t, u.View(), "untracked")

	u.Show(host.Tab{}, false)
	require.Contains(t, u.View(), "(blank)")
	require.Contains(t, u.View(), "[untracked]")

	u.Focus()
	require.Contains(t, u.View(), "new tab")
}

func TestPaneKeepsScrollForUnchangedContent(t *testing.T) {
	p := NewPane()
	p.SetSize(40, 5)
	body := strings.Repeat("line\n", 30)

	p.SetContent(body)
	p.LineDown(3)
	require.Equal(t, 3, p.viewport.YOffset)

	p.SetContent(body)
	require.Equal(t, 3, p.viewport.YOffset)

	p.SetContent(body + "more\n")
	require.Equal(t, 0, p.viewport.YOffset)

	p.LineDown(2)
	p.ClearContent()
	p.SetContent(body + "more\n")
	require.Equal(t, 0, p.viewport.YOffset)
}
