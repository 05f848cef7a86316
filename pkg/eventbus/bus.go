// Package eventbus fans compositor events out to subscribers such as the
// HTTP event stream.
package eventbus

import (
	"context"
	"slices"
	"sync"

	"deskshell/pkg/wm"

	"pkt.systems/pslog"
)

// DefaultDepth is the per-subscriber buffer used when New is given none.
const DefaultDepth = 256

type subscriber struct {
	ch    chan wm.Event
	types []wm.EventType
}

func (s *subscriber) wants(t wm.EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Bus fans out events to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	log     pslog.Logger
	depth   int
	dropped uint64
}

// New constructs a Bus with the given per-subscriber buffer depth.
func New(depth int, logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Bus{
		subs:  make(map[*subscriber]struct{}),
		log:   logger,
		depth: depth,
	}
}

// Subscribe registers a subscriber for the given event types (all types
// when none are given) and returns its channel and a cancel func that
// closes it.
func (b *Bus) Subscribe(types ...wm.EventType) (<-chan wm.Event, func()) {
	sub := &subscriber{ch: make(chan wm.Event, b.depth), types: types}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, sub)
			close(sub.ch)
			b.mu.Unlock()
			b.log.Debug("eventbus unsubscribe")
		})
	}
}

// Publish implements wm.Publisher.
func (b *Bus) Publish(event wm.Event) {
	if b == nil {
		return
	}
	dropped := 0
	b.mu.Lock()
	for sub := range b.subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			dropped++
		}
	}
	b.dropped += uint64(dropped)
	b.mu.Unlock()
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "type", string(event.Type), "count", dropped)
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
