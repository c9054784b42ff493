// Package roller connects tab history to a host: it records activations,
// serves the navigation commands and keeps history in step with the host.
package roller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/reconcile"
	"github.com/vidyasagar/tabroll/internal/suppress"
	"pkt.systems/pslog"
)

// ErrUnknownCommand is returned by ParseCommand and Dispatch.
var ErrUnknownCommand = errors.New("unknown command")

// Command names a user-facing operation.
type Command string

const (
	CommandRollLeft    Command = "roll-left"
	CommandRollRight   Command = "roll-right"
	CommandClearStacks Command = "clear-stacks"
)

// Commands lists every command in display order.
var Commands = []Command{CommandRollLeft, CommandRollRight, CommandClearStacks}

// ParseCommand maps a command name to a Command.
func ParseCommand(name string) (Command, error) {
	for _, c := range Commands {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Config tunes a Service. Zero values select the defaults.
type Config struct {
	MaxStackLength    int
	SuppressMode      suppress.Mode
	SuppressDelay     time.Duration
	ReconcileInterval time.Duration
}

// Service owns the history of every window of one host.
type Service struct {
	host     host.Host
	store    *history.Store
	engine   *history.Engine
	suppress *suppress.Controller
	loop     *reconcile.Loop
	log      pslog.Logger
}

// New creates a Service for h.
func New(h host.Host, cfg Config, logger pslog.Logger) *Service {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	store := history.NewStore(history.WithMaxLength(cfg.MaxStackLength))
	engine := history.NewEngine(store)
	return &Service{
		host:   h,
		store:  store,
		engine: engine,
		suppress: suppress.New(h,
			suppress.WithMode(cfg.SuppressMode),
			suppress.WithDelay(cfg.SuppressDelay),
			suppress.WithLogger(logger.With("component", "suppress")),
		),
		loop: reconcile.New(engine, h, cfg.ReconcileInterval, logger.With("component", "reconcile")),
		log:  logger,
	}
}

// Engine returns the navigation engine.
func (s *Service) Engine() *history.Engine {
	return s.engine
}

// Suppression returns the suppression controller.
func (s *Service) Suppression() *suppress.Controller {
	return s.suppress
}

// Stacks returns a snapshot of a window's history.
func (s *Service) Stacks(w history.WindowID) history.Stacks {
	return s.engine.Snapshot(w)
}

// Run seeds history from the host, then records host events and reconciles
// until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	events, unsubscribe := s.host.Subscribe()
	defer unsubscribe()

	s.Seed(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.pump(gctx, events)
	})
	g.Go(func() error {
		return s.loop.Run(gctx)
	})
	err := g.Wait()

	s.suppress.Wait()
	s.suppress.Close()
	return err
}

func (s *Service) pump(ctx context.Context, events <-chan host.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one host event.
func (s *Service) HandleEvent(ev host.Event) {
	switch ev.Kind {
	case host.TabActivated:
		if !s.suppress.ShouldRecord(ev.WindowID, ev.TabID) {
			return
		}
		// An event queued before Seed ran repeats what Seed recorded.
		if top, ok := s.engine.Top(ev.WindowID); ok && top == ev.TabID {
			s.log.Debug("activation already on top", "window", ev.WindowID, "tab", ev.TabID)
			return
		}
		s.engine.RecordActivation(ev.WindowID, ev.TabID)
		s.log.Debug("recorded activation", "window", ev.WindowID, "tab", ev.TabID)
	case host.WindowRemoved:
		s.store.Delete(ev.WindowID)
		s.log.Debug("window removed, history dropped", "window", ev.WindowID)
	default:
		s.log.Debug("ignoring host event", "kind", ev.Kind)
	}
}

// Seed records the active tab of every live normal window.
func (s *Service) Seed(ctx context.Context) {
	windows, err := s.host.ListWindows(ctx, true)
	if err != nil {
		s.log.Debug("listing windows failed", "err", err)
		return
	}
	for _, w := range windows {
		tab, ok := w.ActiveTab()
		if !ok {
			s.log.Debug("no single active tab", "window", w.ID)
			continue
		}
		s.engine.RecordActivation(w.ID, tab.ID)
		s.log.Debug("seeded window", "window", w.ID, "tab", tab.ID)
	}
}

// Dispatch runs a named command. Only unknown commands produce an error;
// commands that cannot be served are inert.
func (s *Service) Dispatch(ctx context.Context, c Command) error {
	switch c {
	case CommandRollLeft:
		s.NavigateBack(ctx)
	case CommandRollRight:
		s.NavigateForward(ctx)
	case CommandClearStacks:
		s.ClearAll(ctx)
	default:
		s.log.Debug("command not recognised", "command", c)
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c)
	}
	return nil
}

// ToolbarClicked is the toolbar button entry point.
func (s *Service) ToolbarClicked(ctx context.Context) {
	s.NavigateBack(ctx)
}

// NavigateBack activates the previous tab of the current window.
func (s *Service) NavigateBack(ctx context.Context) {
	w, ok := s.currentTracked(ctx)
	if !ok {
		return
	}
	before, _ := s.engine.Top(w)
	tab, ok := s.engine.RollBack(w)
	s.activate(ctx, w, before, tab, ok)
}

// NavigateForward re-activates the tab most recently left by NavigateBack.
func (s *Service) NavigateForward(ctx context.Context) {
	w, ok := s.currentTracked(ctx)
	if !ok {
		return
	}
	before, _ := s.engine.Top(w)
	tab, ok := s.engine.RollForward(w)
	s.activate(ctx, w, before, tab, ok)
}

// activate requests tab unless the roll left the top where it was. The
// host raises no event for a tab that is already active, so a request would
// only open a suppression window nothing arrives in.
func (s *Service) activate(ctx context.Context, w history.WindowID, before, tab history.TabID, ok bool) {
	if ok && tab == before {
		s.log.Debug("top unchanged, nothing to activate", "window", w, "tab", tab)
		return
	}
	s.suppress.RequestActivation(ctx, tab, ok)
}

// ClearAll forgets every window's history and reseeds from the active tabs.
func (s *Service) ClearAll(ctx context.Context) {
	s.store.Clear()
	s.log.Debug("history cleared")
	s.Seed(ctx)
}

func (s *Service) currentTracked(ctx context.Context) (history.WindowID, bool) {
	w, err := s.host.CurrentWindow(ctx)
	if err != nil {
		s.log.Debug("current window unavailable", "err", err)
		return 0, false
	}
	if !w.IsNormal() {
		s.log.Debug("current window is not normal, ignoring", "window", w.ID, "type", w.Type)
		return 0, false
	}
	if !s.store.Has(w.ID) {
		s.log.Debug("nothing known about window", "window", w.ID)
		return 0, false
	}
	return w.ID, true
}
