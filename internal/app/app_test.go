package app

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/roller"
	"github.com/vidyasagar/tabroll/internal/theme"
	"github.com/vidyasagar/tabroll/internal/workspace"
	"pkt.systems/pslog"
)

func quietLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
}

type harness struct {
	ws  *workspace.Workspace
	svc *roller.Service
	m   Model
}

// newHarness starts a workspace with one normal window holding three tabs
// activated in order, with the history service running.
func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := quietLogger()
	ws := workspace.New(workspace.WithLogger(logger))
	svc := roller.New(ws, roller.Config{
		SuppressDelay:     2 * time.Second,
		ReconcileInterval: time.Hour,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Opening the probe window may race the service's subscription; it ends
	// up recorded exactly once either way.
	probe := ws.OpenWindow(host.WindowNormal, "", "probe")
	require.Eventually(t, func() bool {
		return len(svc.Stacks(probe.ID).Back) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ws.OpenTab("https://b.example", "B")
	ws.OpenTab("https://c.example", "C")

	h := &harness{ws: ws, svc: svc}
	h.m = New(Options{Context: ctx, Workspace: ws, Service: svc, Logger: logger})
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})

	require.Eventually(t, func() bool {
		return len(svc.Stacks(probe.ID).Back) == 3
	}, 2*time.Second, 10*time.Millisecond)
	return h
}

// update feeds msg to the model and runs the returned command, feeding a
// dispatch or title result back. Commands that do not finish promptly, such
// as ticks and cursor blinks, are abandoned.
func (h *harness) update(msg tea.Msg) {
	model, cmd := h.m.Update(msg)
	h.m = model.(Model)
	if cmd == nil {
		return
	}

	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case next := <-out:
		switch next.(type) {
		case dispatchedMsg:
			h.svc.Suppression().Wait()
			model, _ = h.m.Update(next)
			h.m = model.(Model)
		case titleMsg:
			model, _ = h.m.Update(next)
			h.m = model.(Model)
		}
	case <-time.After(250 * time.Millisecond):
	}
}

func (h *harness) keys(s string) {
	for _, r := range s {
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) activeTab(t *testing.T) host.Tab {
	t.Helper()
	w, err := h.ws.CurrentWindow(context.Background())
	require.NoError(t, err)
	tab, ok := w.ActiveTab()
	require.True(t, ok)
	return tab
}

func TestRollLeftAndRightKeys(t *testing.T) {
	h := newHarness(t)

	h.keys("[")
	require.Equal(t, "B", h.activeTab(t).Title)

	h.update(tea.KeyMsg{Type: tea.KeyLeft, Alt: true})
	require.Equal(t, "probe", h.activeTab(t).Title)

	h.keys("]")
	require.Equal(t, "B", h.activeTab(t).Title)
	require.Equal(t, "roll-right", h.m.statusBar.Message())
}

func TestToolbarClickRollsBack(t *testing.T) {
	h := newHarness(t)

	h.m.statusBar.View()
	var x int
	for x = 0; x < 100 && !h.m.statusBar.BackButtonAt(x); x++ {
	}
	require.Less(t, x, 100, "back button not found")

	h.update(tea.MouseMsg{X: x, Y: h.m.statusRow(), Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.Equal(t, "B", h.activeTab(t).Title)

	// Clicks elsewhere on the status row do nothing.
	h.update(tea.MouseMsg{X: 99, Y: h.m.statusRow(), Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.Equal(t, "B", h.activeTab(t).Title)
}

func TestClickTabActivatesIt(t *testing.T) {
	h := newHarness(t)

	h.m.tabBar.View()
	h.update(tea.MouseMsg{X: 1, Y: tabBarRow, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.Equal(t, "probe", h.activeTab(t).Title)
}

func TestOpenTabFromURLBar(t *testing.T) {
	h := newHarness(t)

	h.keys("o")
	require.Equal(t, ModeInsert, h.m.mode)
	h.keys("go.dev")
	h.update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, ModeNormal, h.m.mode)
	tab := h.activeTab(t)
	require.Equal(t, "https://go.dev", tab.URL)

	w, _ := h.ws.CurrentWindow(context.Background())
	require.Eventually(t, func() bool {
		back := h.svc.Stacks(w.ID).Back
		return len(back) == 4 && back[3] == tab.ID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEscapeCancelsURLBar(t *testing.T) {
	h := newHarness(t)
	before := len(h.ws.Windows()[0].Tabs)

	h.keys("o")
	h.keys("never")
	h.update(tea.KeyMsg{Type: tea.KeyEsc})

	require.Equal(t, ModeNormal, h.m.mode)
	require.Len(t, h.ws.Windows()[0].Tabs, before)
}

func TestCommandBar(t *testing.T) {
	h := newHarness(t)
	t.Cleanup(func() { theme.Set("default") })

	run := func(line string) {
		h.keys(":")
		require.Equal(t, ModeCommand, h.m.mode)
		h.keys(line)
		h.update(tea.KeyMsg{Type: tea.KeyEnter})
		require.Equal(t, ModeNormal, h.m.mode)
	}

	run("roll-left")
	require.Equal(t, "B", h.activeTab(t).Title)

	run("theme nord")
	require.Equal(t, "nord", theme.Current.Name)

	run("explode")
	require.Equal(t, "unknown command: explode", h.m.statusBar.Message())

	w, _ := h.ws.CurrentWindow(context.Background())
	h.svc.Suppression().Wait()
	run("clear-stacks")
	require.Equal(t, []history.TabID{h.activeTab(t).ID}, h.svc.Stacks(w.ID).Back)
}

func TestWindowKeys(t *testing.T) {
	h := newHarness(t)

	h.update(tea.KeyMsg{Type: tea.KeyCtrlP})
	windows := h.ws.Windows()
	require.Len(t, windows, 2)
	require.Equal(t, host.WindowPopup, windows[1].Type)
	require.True(t, windows[1].Focused)

	// Rolling in a popup is a no-op.
	h.keys("[")
	require.Len(t, h.ws.Windows()[1].Tabs, 1)

	h.keys("w")
	require.True(t, h.ws.Windows()[0].Focused)

	h.keys("W")
	h.update(tea.KeyMsg{Type: tea.KeyCtrlQ})
	require.Len(t, h.ws.Windows(), 1)
}

func TestTabKeys(t *testing.T) {
	h := newHarness(t)

	h.keys("1")
	require.Equal(t, "probe", h.activeTab(t).Title)
	h.update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "B", h.activeTab(t).Title)
	h.update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, "probe", h.activeTab(t).Title)

	h.keys("9")
	require.Contains(t, h.m.statusBar.Message(), "no such tab")

	h.update(tea.KeyMsg{Type: tea.KeyCtrlW})
	require.Len(t, h.ws.Windows()[0].Tabs, 2)
}

func TestHelpAndStackPanel(t *testing.T) {
	h := newHarness(t)

	h.keys("?")
	require.Equal(t, ModeHelp, h.m.mode)
	require.Contains(t, h.m.View(), "Rolling")
	h.keys("?")
	require.Equal(t, ModeNormal, h.m.mode)

	h.keys("s")
	require.True(t, h.m.stackPanel.IsVisible())
	view := h.m.View()
	require.Contains(t, view, "back (3)")
	require.LessOrEqual(t, lipgloss.Height(view), 30)
}

func TestHelpMarkdownListsEveryCommand(t *testing.T) {
	md := helpMarkdown(DefaultKeyMap())
	for _, c := range roller.Commands {
		require.True(t, strings.Contains(md, ":"+string(c)), "missing %s", c)
	}
	require.Contains(t, md, "ctrl+l")
}

func TestStartURLsOpenTabs(t *testing.T) {
	ws := workspace.New(workspace.WithLogger(quietLogger()))
	m := New(Options{Workspace: ws, Logger: quietLogger(), StartURLs: []string{"go.dev", "https://pkg.go.dev"}})

	windows := ws.Windows()
	require.Len(t, windows, 1)
	require.Len(t, windows[0].Tabs, 2)
	require.Equal(t, "https://go.dev", windows[0].Tabs[0].URL)
	require.Equal(t, "https://pkg.go.dev", windows[0].Tabs[1].URL)
	require.Len(t, m.pending, 2)
	require.NotNil(t, m.Init())
}
