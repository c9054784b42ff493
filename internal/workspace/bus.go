package workspace

import (
	"sync"

	"github.com/vidyasagar/tabroll/internal/host"
	"pkt.systems/pslog"
)

// bus fans host events out to subscribers. Sends never block; a subscriber
// that falls behind loses events.
type bus struct {
	mu    sync.Mutex
	subs  map[chan host.Event]struct{}
	log   pslog.Logger
	depth int
}

func newBus(logger pslog.Logger) *bus {
	return &bus{
		subs:  make(map[chan host.Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

func (b *bus) subscribe() (<-chan host.Event, func()) {
	ch := make(chan host.Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("workspace subscribe", "subs", count)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
			b.log.Debug("workspace unsubscribe")
		})
	}
}

func (b *bus) publish(ev host.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := 0
	for sub := range b.subs {
		select {
		case sub <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Warn("workspace event dropped", "kind", ev.Kind, "count", dropped)
	}
}
