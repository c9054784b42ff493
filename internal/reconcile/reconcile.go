// Package reconcile periodically prunes tab history against the tabs the host
// still has open.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"pkt.systems/pslog"
)

// DefaultInterval is the time between sweeps.
const DefaultInterval = time.Second

// Result summarizes one sweep.
type Result struct {
	Pruned  int // tracked windows whose history was rewritten
	Stale   int // windows skipped because they changed mid-sweep
	Skipped int // live windows with no history
}

// Loop sweeps the history store on a fixed interval.
type Loop struct {
	engine   *history.Engine
	lister   host.Lister
	interval time.Duration
	log      pslog.Logger
}

// New creates a Loop. A non-positive interval selects DefaultInterval.
func New(engine *history.Engine, lister host.Lister, interval time.Duration, logger pslog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Loop{
		engine:   engine,
		lister:   lister,
		interval: interval,
		log:      logger,
	}
}

// Interval returns the sweep period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run sweeps every interval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := l.Sweep(ctx); err != nil && ctx.Err() == nil {
				l.log.Debug("reconcile sweep failed", "err", err)
			}
		}
	}
}

// Sweep runs a single reconciliation pass.
func (l *Loop) Sweep(ctx context.Context) (Result, error) {
	store := l.engine.Store()

	// Revisions are captured before enumerating so a record that lands while
	// the host call is in flight is never pruned against an older tab list.
	revs := make(map[history.WindowID]uint64)
	for _, id := range store.Windows() {
		revs[id] = store.Revision(id)
	}

	windows, err := l.lister.ListWindows(ctx, true)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, w := range windows {
		rev, tracked := revs[w.ID]
		if !tracked {
			res.Skipped++
			continue
		}
		_, _, err := l.engine.PruneDeadAt(w.ID, w.TabIDs(), rev)
		switch {
		case errors.Is(err, history.ErrStale):
			res.Stale++
			l.log.Debug("reconcile skipped changed window", "window", w.ID)
		case err == nil:
			res.Pruned++
		}
	}
	return res, nil
}
