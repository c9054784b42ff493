// Package suppress keeps tabroll from recording the tab activations it causes
// itself.
//
// Activating a tab makes the host raise an ordinary tab-activated event. The
// Controller opens a suppression window around every activation it requests
// so the recording path can tell those events apart from user browsing.
package suppress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"pkt.systems/pslog"
)

// DefaultDelay is how long suppression outlasts a completed activation request.
const DefaultDelay = 2000 * time.Millisecond

// Mode selects how activation events are matched against requests.
type Mode string

const (
	// ModeDebounce ignores every activation event while suppressing.
	ModeDebounce Mode = "debounce"
	// ModeToken ignores only the first event for each requested tab.
	ModeToken Mode = "token"
)

// ParseMode validates a mode name. The empty string selects ModeDebounce.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDebounce:
		return ModeDebounce, nil
	case ModeToken:
		return ModeToken, nil
	}
	return "", fmt.Errorf("unknown suppression mode %q", s)
}

// State is the controller's suppression state.
type State int

const (
	Idle State = iota
	Suppressing
)

func (s State) String() string {
	if s == Suppressing {
		return "suppressing"
	}
	return "idle"
}

// Controller gates the recording path while engine-driven activations settle.
type Controller struct {
	activator host.Activator
	mode      Mode
	delay     time.Duration
	now       func() time.Time
	log       pslog.Logger

	mu      sync.Mutex
	pending int
	expiry  time.Time
	gen     uint64
	tokens  map[history.TabID]uint64
	timer   *time.Timer

	inflight sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithMode sets the matching mode.
func WithMode(m Mode) Option {
	return func(c *Controller) {
		if m != "" {
			c.mode = m
		}
	}
}

// WithDelay sets how long suppression lasts after an activation completes.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for the debug channel.
func WithLogger(l pslog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Controller that activates tabs through a.
func New(a host.Activator, opts ...Option) *Controller {
	c := &Controller{
		activator: a,
		mode:      ModeDebounce,
		delay:     DefaultDelay,
		now:       time.Now,
		tokens:    make(map[history.TabID]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = pslog.Ctx(context.Background())
	}
	return c
}

// Mode returns the matching mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// RequestActivation activates tab without letting the resulting event be
// recorded. ok == false means there is no tab to go to and nothing happens.
// The host call runs on its own goroutine; its outcome only arms the expiry.
func (c *Controller) RequestActivation(ctx context.Context, tab history.TabID, ok bool) {
	if !ok {
		return
	}

	c.mu.Lock()
	c.pending++
	c.gen++
	gen := c.gen
	if c.mode == ModeToken {
		c.tokens[tab] = gen
	}
	c.mu.Unlock()

	c.log.Debug("activation requested", "tab", tab, "gen", gen, "mode", c.mode)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := c.activator.ActivateTab(ctx, tab); err != nil {
			c.log.Debug("activation failed", "tab", tab, "gen", gen, "err", err)
		}
		c.settle()
	}()
}

// ShouldRecord reports whether an observed activation is user-driven and
// belongs in the history.
func (c *Controller) ShouldRecord(w history.WindowID, tab history.TabID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateLocked() == Idle {
		clear(c.tokens)
		return true
	}

	switch c.mode {
	case ModeToken:
		if _, stamped := c.tokens[tab]; stamped {
			delete(c.tokens, tab)
			c.log.Debug("ignoring requested activation", "window", w, "tab", tab)
			return false
		}
		return true
	default:
		c.log.Debug("ignoring activation while suppressing", "window", w, "tab", tab)
		return false
	}
}

// State reports whether the controller is currently suppressing.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Wait blocks until every in-flight activation call has returned.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close stops the expiry timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Controller) stateLocked() State {
	if c.pending > 0 || c.now().Before(c.expiry) {
		return Suppressing
	}
	return Idle
}

// settle closes out one activation request and pushes the expiry forward.
// A single timer is re-armed for the latest expiry.
func (c *Controller) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending--
	c.expiry = c.now().Add(c.delay)
	if c.timer == nil {
		c.timer = time.AfterFunc(c.delay, c.expire)
	} else {
		c.timer.Reset(c.delay)
	}
}

func (c *Controller) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateLocked() != Idle {
		return
	}
	if n := len(c.tokens); n > 0 {
		c.log.Debug("dropping unmatched activation stamps", "count", n)
		clear(c.tokens)
	}
	c.log.Debug("suppression window closed")
}
