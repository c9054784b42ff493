package history

import (
	"slices"
	"sync"
)

// MaxStackLength is the default bound on a window's back stack.
const MaxStackLength = 20

// WindowID identifies a host window.
type WindowID int

// TabID identifies a host tab. Tab ids are unique across windows.
type TabID int

// Stacks is the back/forward pair tracked for one window.
type Stacks struct {
	Back    []TabID
	Forward []TabID
}

// Top returns the most recently activated tab on the back stack.
func (s Stacks) Top() (TabID, bool) {
	return top(s.Back)
}

type entry struct {
	back     []TabID
	forward  []TabID
	revision uint64
}

// Store holds the back/forward stacks of every tracked window.
type Store struct {
	mu      sync.RWMutex
	windows map[WindowID]*entry
	maxLen  int
	seq     uint64
}

// Option configures a Store.
type Option func(*Store)

// WithMaxLength overrides the back stack bound. Values below 1 are ignored.
func WithMaxLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// NewStore creates an empty history store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		windows: make(map[WindowID]*entry),
		maxLen:  MaxStackLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxLength returns the back stack bound.
func (s *Store) MaxLength() int {
	return s.maxLen
}

// Get returns copies of the stacks for a window. Unknown windows yield two
// empty stacks.
func (s *Store) Get(id WindowID) (back, forward []TabID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.windows[id]
	if !ok {
		return []TabID{}, []TabID{}
	}
	return slices.Clone(e.back), slices.Clone(e.forward)
}

// Has reports whether the window has an entry.
func (s *Store) Has(id WindowID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.windows[id]
	return ok
}

// Revision returns the write counter of a window, or 0 if it is unknown.
func (s *Store) Revision(id WindowID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.windows[id]; ok {
		return e.revision
	}
	return 0
}

// Set replaces the stacks for a window.
func (s *Store) Set(id WindowID, back, forward []TabID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(id, back, forward)
}

// Update atomically reads the window's stacks, passes copies to fn and stores
// the result. fn is not called for unknown windows unless create is true.
// It reports whether fn ran.
func (s *Store) Update(id WindowID, create bool, fn func(back, forward []TabID) ([]TabID, []TabID)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, create, fn)
}

// UpdateAt is Update guarded by the window's revision: fn only runs if the
// revision still equals rev.
func (s *Store) UpdateAt(id WindowID, rev uint64, fn func(back, forward []TabID) ([]TabID, []TabID)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.windows[id]
	if !ok || e.revision != rev {
		return false
	}
	return s.updateLocked(id, false, fn)
}

// Delete removes a window's entry.
func (s *Store) Delete(id WindowID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, id)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.windows)
}

// Windows returns the tracked window ids in ascending order.
func (s *Store) Windows() []WindowID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]WindowID, 0, len(s.windows))
	for id := range s.windows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of tracked windows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

func (s *Store) updateLocked(id WindowID, create bool, fn func(back, forward []TabID) ([]TabID, []TabID)) bool {
	e, ok := s.windows[id]
	if !ok && !create {
		return false
	}
	var back, forward []TabID
	if ok {
		back, forward = slices.Clone(e.back), slices.Clone(e.forward)
	}
	back, forward = fn(back, forward)
	s.setLocked(id, back, forward)
	return true
}

// setLocked trims both stacks by the back stack's overflow. The forward stack's
// own length is not checked.
func (s *Store) setLocked(id WindowID, back, forward []TabID) {
	overflow := max(0, len(back)-s.maxLen)
	back = back[overflow:]
	forward = forward[min(overflow, len(forward)):]

	e, ok := s.windows[id]
	if !ok {
		e = &entry{}
		s.windows[id] = e
	}
	e.back = slices.Clone(back)
	e.forward = slices.Clone(forward)
	if e.back == nil {
		e.back = []TabID{}
	}
	if e.forward == nil {
		e.forward = []TabID{}
	}
	s.seq++
	e.revision = s.seq
}

func top(stack []TabID) (TabID, bool) {
	if len(stack) == 0 {
		return 0, false
	}
	return stack[len(stack)-1], true
}
