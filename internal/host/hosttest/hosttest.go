// Package hosttest provides a scriptable host.Host for tests.
package hosttest

import (
	"context"
	"slices"
	"sync"

	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
)

// Host is an in-memory host.Host. Activating a tab marks it active and, when
// EmitOnActivate is set, raises a TabActivated event like a real host would.
type Host struct {
	mu             sync.Mutex
	windows        []host.Window
	current        history.WindowID
	listErr        error
	activateErr    error
	activated      []history.TabID
	listCalls      int
	subs           map[chan host.Event]struct{}
	EmitOnActivate bool
}

// New creates a fake host holding windows. The first window is current.
func New(windows ...host.Window) *Host {
	h := &Host{subs: make(map[chan host.Event]struct{})}
	h.SetWindows(windows...)
	if len(windows) > 0 {
		h.current = windows[0].ID
	}
	return h
}

// Window builds a window whose tabs are ids; active marks the active tab.
func Window(id history.WindowID, typ host.WindowType, active history.TabID, ids ...history.TabID) host.Window {
	w := host.Window{ID: id, Type: typ}
	for _, tab := range ids {
		w.Tabs = append(w.Tabs, host.Tab{ID: tab, Active: tab == active})
	}
	return w
}

// SetWindows replaces every window.
func (h *Host) SetWindows(windows ...host.Window) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windows = cloneWindows(windows)
}

// SetCurrent selects the focused window.
func (h *Host) SetCurrent(id history.WindowID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = id
}

// FailList makes ListWindows return err.
func (h *Host) FailList(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listErr = err
}

// FailActivate makes ActivateTab return err.
func (h *Host) FailActivate(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activateErr = err
}

// Activated returns every tab passed to ActivateTab, in call order.
func (h *Host) Activated() []history.TabID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.activated)
}

// ListCalls returns how many times ListWindows ran.
func (h *Host) ListCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listCalls
}

// Emit delivers ev to every subscriber.
func (h *Host) Emit(ev host.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitLocked(ev)
}

// ListWindows implements host.Lister.
func (h *Host) ListWindows(_ context.Context, normalOnly bool) ([]host.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listCalls++
	if h.listErr != nil {
		return nil, h.listErr
	}
	var out []host.Window
	for _, w := range h.windows {
		if normalOnly && !w.IsNormal() {
			continue
		}
		out = append(out, w)
	}
	return cloneWindows(out), nil
}

// CurrentWindow implements host.Host.
func (h *Host) CurrentWindow(context.Context) (host.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.windows {
		if w.ID == h.current {
			return cloneWindows([]host.Window{w})[0], nil
		}
	}
	return host.Window{}, host.ErrNoWindow
}

// ActivateTab implements host.Activator.
func (h *Host) ActivateTab(_ context.Context, tab history.TabID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activated = append(h.activated, tab)
	if h.activateErr != nil {
		return h.activateErr
	}
	for wi := range h.windows {
		w := &h.windows[wi]
		idx := slices.IndexFunc(w.Tabs, func(t host.Tab) bool { return t.ID == tab })
		if idx < 0 {
			continue
		}
		for ti := range w.Tabs {
			w.Tabs[ti].Active = ti == idx
		}
		if h.EmitOnActivate {
			h.emitLocked(host.Event{Kind: host.TabActivated, WindowID: w.ID, TabID: tab})
		}
		return nil
	}
	return host.ErrNoTab
}

// Subscribe implements host.Host.
func (h *Host) Subscribe() (<-chan host.Event, func()) {
	ch := make(chan host.Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Host) emitLocked(ev host.Event) {
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func cloneWindows(in []host.Window) []host.Window {
	out := make([]host.Window, len(in))
	for i, w := range in {
		w.Tabs = slices.Clone(w.Tabs)
		out[i] = w
	}
	return out
}
