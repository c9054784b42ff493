// Package workspace is an in-process host of windows and tabs. It raises the
// same activation and removal events a browser would, so tab history can be
// tracked against it.
package workspace

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"pkt.systems/pslog"
)

// BlankTitle labels a tab that has no page yet.
const BlankTitle = "New Tab"

// Session persists the window layout between runs.
type Session interface {
	Load(ctx context.Context) ([]host.Window, error)
	Save(ctx context.Context, windows []host.Window) error
}

type window struct {
	id   history.WindowID
	typ  host.WindowType
	tabs []host.Tab
}

func (w *window) activeIndex() int {
	return slices.IndexFunc(w.tabs, func(t host.Tab) bool { return t.Active })
}

func (w *window) activate(i int) {
	for j := range w.tabs {
		w.tabs[j].Active = j == i
	}
}

func (w *window) snapshot(focused bool) host.Window {
	return host.Window{
		ID:      w.id,
		Type:    w.typ,
		Focused: focused,
		Tabs:    slices.Clone(w.tabs),
	}
}

// Workspace holds an ordered set of windows, one of which has focus.
// It implements host.Host.
type Workspace struct {
	mu         sync.Mutex
	windows    []*window
	focused    history.WindowID
	nextWindow history.WindowID
	nextTab    history.TabID
	session    Session
	events     *bus
	log        pslog.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the workspace logger.
func WithLogger(logger pslog.Logger) Option {
	return func(ws *Workspace) {
		if logger != nil {
			ws.log = logger
		}
	}
}

// WithSession enables layout persistence.
func WithSession(s Session) Option {
	return func(ws *Workspace) {
		ws.session = s
	}
}

// New creates an empty workspace.
func New(opts ...Option) *Workspace {
	ws := &Workspace{
		nextWindow: 1,
		nextTab:    1,
		log:        pslog.Ctx(context.Background()),
	}
	for _, opt := range opts {
		opt(ws)
	}
	ws.events = newBus(ws.log)
	return ws
}

var _ host.Host = (*Workspace)(nil)

// ListWindows returns every window with its tabs, in display order.
func (ws *Workspace) ListWindows(_ context.Context, normalOnly bool) ([]host.Window, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.snapshotLocked(normalOnly), nil
}

// Windows returns every window, in display order.
func (ws *Workspace) Windows() []host.Window {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.snapshotLocked(false)
}

func (ws *Workspace) snapshotLocked(normalOnly bool) []host.Window {
	out := make([]host.Window, 0, len(ws.windows))
	for _, w := range ws.windows {
		if normalOnly && w.typ != host.WindowNormal {
			continue
		}
		out = append(out, w.snapshot(w.id == ws.focused))
	}
	return out
}

// CurrentWindow returns the focused window.
func (ws *Workspace) CurrentWindow(_ context.Context) (host.Window, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w := ws.windowLocked(ws.focused)
	if w == nil {
		return host.Window{}, host.ErrNoWindow
	}
	return w.snapshot(true), nil
}

// ActivateTab makes tab the active tab of its window. Focus does not move
// between windows. Activating the already active tab raises no event.
func (ws *Workspace) ActivateTab(_ context.Context, tab history.TabID) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, i := ws.findTabLocked(tab)
	if w == nil {
		return fmt.Errorf("activate tab %d: %w", tab, host.ErrNoTab)
	}
	ws.activateLocked(w, i)
	return nil
}

// Subscribe returns a channel of host events and a cancel func.
func (ws *Workspace) Subscribe() (<-chan host.Event, func()) {
	return ws.events.subscribe()
}

// OpenWindow creates a window holding one tab, focuses it and activates the tab.
func (ws *Workspace) OpenWindow(typ host.WindowType, url, title string) host.Window {
	if typ == "" {
		typ = host.WindowNormal
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	w := &window{id: ws.nextWindow, typ: typ}
	ws.nextWindow++
	ws.windows = append(ws.windows, w)
	ws.focused = w.id
	ws.log.Debug("window opened", "window", w.id, "type", typ)

	ws.insertTabLocked(w, 0, url, title)
	return w.snapshot(true)
}

// CloseWindow removes a window and its tabs. Focus moves to the next window.
func (ws *Workspace) CloseWindow(id history.WindowID) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	i := ws.windowIndexLocked(id)
	if i < 0 {
		return fmt.Errorf("close window %d: %w", id, host.ErrNoWindow)
	}
	ws.removeWindowLocked(i)
	return nil
}

// FocusWindow gives id the focus.
func (ws *Workspace) FocusWindow(id history.WindowID) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.windowLocked(id) == nil {
		return fmt.Errorf("focus window %d: %w", id, host.ErrNoWindow)
	}
	ws.focused = id
	return nil
}

// CycleWindow moves focus delta windows along, wrapping around.
func (ws *Workspace) CycleWindow(delta int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	n := len(ws.windows)
	if n == 0 {
		return
	}
	i := max(ws.windowIndexLocked(ws.focused), 0)
	ws.focused = ws.windows[wrap(i+delta, n)].id
}

// OpenTab adds a tab after the active tab of the focused window and
// activates it.
func (ws *Workspace) OpenTab(url, title string) (host.Tab, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w := ws.windowLocked(ws.focused)
	if w == nil {
		return host.Tab{}, fmt.Errorf("open tab: %w", host.ErrNoWindow)
	}
	tab := ws.insertTabLocked(w, w.activeIndex()+1, url, title)
	return tab, nil
}

// CloseTab removes a tab. When it was active its right neighbour (or the
// new last tab) takes over. Closing the last tab closes the window.
func (ws *Workspace) CloseTab(tab history.TabID) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, i := ws.findTabLocked(tab)
	if w == nil {
		return fmt.Errorf("close tab %d: %w", tab, host.ErrNoTab)
	}
	if len(w.tabs) == 1 {
		ws.removeWindowLocked(ws.windowIndexLocked(w.id))
		return nil
	}

	wasActive := w.tabs[i].Active
	w.tabs = slices.Delete(w.tabs, i, i+1)
	ws.log.Debug("tab closed", "window", w.id, "tab", tab)
	if wasActive {
		ws.activateLocked(w, min(i, len(w.tabs)-1))
	}
	return nil
}

// CloseActiveTab closes the active tab of the focused window.
func (ws *Workspace) CloseActiveTab() error {
	ws.mu.Lock()
	w := ws.windowLocked(ws.focused)
	if w == nil {
		ws.mu.Unlock()
		return fmt.Errorf("close tab: %w", host.ErrNoWindow)
	}
	i := w.activeIndex()
	if i < 0 {
		ws.mu.Unlock()
		return fmt.Errorf("close tab: %w", host.ErrNoTab)
	}
	id := w.tabs[i].ID
	ws.mu.Unlock()
	return ws.CloseTab(id)
}

// CycleTab activates the tab delta positions from the active one in the
// focused window, wrapping around.
func (ws *Workspace) CycleTab(delta int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w := ws.windowLocked(ws.focused)
	if w == nil || len(w.tabs) == 0 {
		return
	}
	i := max(w.activeIndex(), 0)
	ws.activateLocked(w, wrap(i+delta, len(w.tabs)))
}

// SelectIndex activates the i-th tab (zero based) of the focused window.
func (ws *Workspace) SelectIndex(i int) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w := ws.windowLocked(ws.focused)
	if w == nil {
		return fmt.Errorf("select tab: %w", host.ErrNoWindow)
	}
	if i < 0 || i >= len(w.tabs) {
		return fmt.Errorf("select tab %d: %w", i+1, host.ErrNoTab)
	}
	ws.activateLocked(w, i)
	return nil
}

// SetTitle relabels a tab.
func (ws *Workspace) SetTitle(tab history.TabID, title string) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, i := ws.findTabLocked(tab)
	if w == nil {
		return fmt.Errorf("set title %d: %w", tab, host.ErrNoTab)
	}
	w.tabs[i].Title = title
	return nil
}

// Tab looks up a tab by id.
func (ws *Workspace) Tab(tab history.TabID) (host.Tab, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, i := ws.findTabLocked(tab)
	if w == nil {
		return host.Tab{}, false
	}
	return w.tabs[i], true
}

// Restore replaces the workspace with the saved layout and returns the
// number of windows restored. No events are raised; windows without tabs are
// dropped and each window ends up with exactly one active tab.
func (ws *Workspace) Restore(ctx context.Context) (int, error) {
	if ws.session == nil {
		return 0, nil
	}
	saved, err := ws.session.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("restoring session: %w", err)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.windows = ws.windows[:0]
	ws.focused = 0
	for _, sw := range saved {
		if len(sw.Tabs) == 0 {
			continue
		}
		w := &window{id: sw.ID, typ: sw.Type, tabs: slices.Clone(sw.Tabs)}
		switch w.typ {
		case host.WindowNormal, host.WindowPopup, host.WindowPanel:
		default:
			w.typ = host.WindowNormal
		}
		w.activate(max(w.activeIndex(), 0))
		ws.windows = append(ws.windows, w)

		if sw.Focused || ws.focused == 0 {
			ws.focused = w.id
		}
		ws.nextWindow = max(ws.nextWindow, w.id+1)
		for _, t := range w.tabs {
			ws.nextTab = max(ws.nextTab, t.ID+1)
		}
	}
	ws.log.Info("session restored", "windows", len(ws.windows))
	return len(ws.windows), nil
}

// Save writes the current layout to the session store.
func (ws *Workspace) Save(ctx context.Context) error {
	if ws.session == nil {
		return nil
	}
	windows := ws.Windows()
	if err := ws.session.Save(ctx, windows); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	ws.log.Debug("session saved", "windows", len(windows))
	return nil
}

func (ws *Workspace) insertTabLocked(w *window, at int, url, title string) host.Tab {
	if title == "" {
		title = BlankTitle
		if url != "" {
			title = url
		}
	}
	tab := host.Tab{ID: ws.nextTab, Title: title, URL: url}
	ws.nextTab++
	w.tabs = slices.Insert(w.tabs, at, tab)
	ws.log.Debug("tab opened", "window", w.id, "tab", tab.ID)
	ws.activateLocked(w, at)
	tab.Active = true
	return tab
}

func (ws *Workspace) activateLocked(w *window, i int) {
	if w.tabs[i].Active {
		return
	}
	w.activate(i)
	ws.events.publish(host.Event{Kind: host.TabActivated, WindowID: w.id, TabID: w.tabs[i].ID})
}

func (ws *Workspace) removeWindowLocked(i int) {
	w := ws.windows[i]
	ws.windows = slices.Delete(ws.windows, i, i+1)
	if ws.focused == w.id {
		ws.focused = 0
		if n := len(ws.windows); n > 0 {
			ws.focused = ws.windows[min(i, n-1)].id
		}
	}
	ws.log.Debug("window closed", "window", w.id)
	ws.events.publish(host.Event{Kind: host.WindowRemoved, WindowID: w.id})
}

func (ws *Workspace) windowIndexLocked(id history.WindowID) int {
	return slices.IndexFunc(ws.windows, func(w *window) bool { return w.id == id })
}

func (ws *Workspace) windowLocked(id history.WindowID) *window {
	if i := ws.windowIndexLocked(id); i >= 0 {
		return ws.windows[i]
	}
	return nil
}

func (ws *Workspace) findTabLocked(tab history.TabID) (*window, int) {
	for _, w := range ws.windows {
		if i := slices.IndexFunc(w.tabs, func(t host.Tab) bool { return t.ID == tab }); i >= 0 {
			return w, i
		}
	}
	return nil, -1
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
