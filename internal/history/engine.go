package history

import (
	"errors"
	"slices"
)

// ErrStale is returned when a window changed between reading its revision and
// applying a guarded update.
var ErrStale = errors.New("window history changed")

// Engine implements tab navigation over a Store.
type Engine struct {
	store *Store
}

// NewEngine creates an engine operating on store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Store returns the underlying store.
func (e *Engine) Store() *Store {
	return e.store
}

// RecordActivation pushes tab onto the window's back stack and clears its
// forward stack, creating the window entry if needed.
func (e *Engine) RecordActivation(w WindowID, tab TabID) TabID {
	e.store.Update(w, true, func(back, _ []TabID) ([]TabID, []TabID) {
		return append(back, tab), nil
	})
	return tab
}

// RollBack moves the current tab from back to forward and returns the new
// current tab. A single-entry back stack is left alone.
func (e *Engine) RollBack(w WindowID) (TabID, bool) {
	var cur TabID
	var ok bool
	e.store.Update(w, false, func(back, forward []TabID) ([]TabID, []TabID) {
		if len(back) > 1 {
			forward = append(forward, back[len(back)-1])
			back = back[:len(back)-1]
		}
		cur, ok = top(back)
		return back, forward
	})
	return cur, ok
}

// RollForward moves the most recently undone tab back onto the back stack and
// returns the new current tab.
func (e *Engine) RollForward(w WindowID) (TabID, bool) {
	var cur TabID
	var ok bool
	e.store.Update(w, false, func(back, forward []TabID) ([]TabID, []TabID) {
		if len(forward) > 0 {
			back = append(back, forward[len(forward)-1])
			forward = forward[:len(forward)-1]
		}
		cur, ok = top(back)
		return back, forward
	})
	return cur, ok
}

// PruneDead drops every tab not in alive from both stacks, keeping order.
func (e *Engine) PruneDead(w WindowID, alive []TabID) (TabID, bool) {
	var cur TabID
	var ok bool
	e.store.Update(w, false, pruneFunc(alive, &cur, &ok))
	return cur, ok
}

// PruneDeadAt is PruneDead applied only if the window's revision still equals
// rev. It returns ErrStale otherwise, including when the window is gone.
func (e *Engine) PruneDeadAt(w WindowID, alive []TabID, rev uint64) (TabID, bool, error) {
	var cur TabID
	var ok bool
	if !e.store.UpdateAt(w, rev, pruneFunc(alive, &cur, &ok)) {
		return 0, false, ErrStale
	}
	return cur, ok, nil
}

// Top returns the current tab of a window.
func (e *Engine) Top(w WindowID) (TabID, bool) {
	back, _ := e.store.Get(w)
	return top(back)
}

// Snapshot returns a copy of a window's stacks.
func (e *Engine) Snapshot(w WindowID) Stacks {
	back, forward := e.store.Get(w)
	return Stacks{Back: back, Forward: forward}
}

func pruneFunc(alive []TabID, cur *TabID, ok *bool) func(back, forward []TabID) ([]TabID, []TabID) {
	set := make(map[TabID]struct{}, len(alive))
	for _, id := range alive {
		set[id] = struct{}{}
	}
	dead := func(id TabID) bool {
		_, live := set[id]
		return !live
	}
	return func(back, forward []TabID) ([]TabID, []TabID) {
		back = slices.DeleteFunc(back, dead)
		forward = slices.DeleteFunc(forward, dead)
		*cur, *ok = top(back)
		return back, forward
	}
}
