// Package host describes the windowing/tab system tabroll tracks.
package host

import (
	"context"
	"errors"

	"github.com/vidyasagar/tabroll/internal/history"
)

var (
	// ErrNoWindow is returned when a window does not exist.
	ErrNoWindow = errors.New("no such window")
	// ErrNoTab is returned when a tab does not exist.
	ErrNoTab = errors.New("no such tab")
)

// WindowType classifies a window.
type WindowType string

const (
	WindowNormal WindowType = "normal"
	WindowPopup  WindowType = "popup"
	WindowPanel  WindowType = "panel"
)

// Tab is a tab as reported by the host.
type Tab struct {
	ID     history.TabID
	Active bool
	Title  string
	URL    string
}

// Window is a window with its tabs populated.
type Window struct {
	ID      history.WindowID
	Type    WindowType
	Focused bool
	Tabs    []Tab
}

// IsNormal reports whether the window is a top-level browsing window.
func (w Window) IsNormal() bool {
	return w.Type == WindowNormal
}

// ActiveTab returns the window's active tab. It fails unless exactly one tab
// is marked active.
func (w Window) ActiveTab() (Tab, bool) {
	var found Tab
	n := 0
	for _, t := range w.Tabs {
		if t.Active {
			found = t
			n++
		}
	}
	return found, n == 1
}

// TabIDs returns the ids of every tab in the window, in tab order.
func (w Window) TabIDs() []history.TabID {
	ids := make([]history.TabID, len(w.Tabs))
	for i, t := range w.Tabs {
		ids[i] = t.ID
	}
	return ids
}

// EventKind identifies a host event.
type EventKind int

const (
	// TabActivated is raised whenever a tab becomes the active tab of its window.
	TabActivated EventKind = iota + 1
	// WindowRemoved is raised after a window is closed.
	WindowRemoved
)

func (k EventKind) String() string {
	switch k {
	case TabActivated:
		return "tab-activated"
	case WindowRemoved:
		return "window-removed"
	default:
		return "unknown"
	}
}

// Event is a notification from the host. TabID is zero for WindowRemoved.
type Event struct {
	Kind     EventKind
	WindowID history.WindowID
	TabID    history.TabID
}

// Lister enumerates windows.
type Lister interface {
	ListWindows(ctx context.Context, normalOnly bool) ([]Window, error)
}

// Activator brings a tab to the front of its window.
type Activator interface {
	ActivateTab(ctx context.Context, tab history.TabID) error
}

// Host is the windowing/tab system consumed by tabroll.
type Host interface {
	Lister
	Activator
	CurrentWindow(ctx context.Context) (Window, error)
	Subscribe() (<-chan Event, func())
}
