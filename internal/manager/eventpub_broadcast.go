package manager

import (
	"sync"

	"github.com/google/uuid"

	"voiced/pkg/types"
)

// Broadcaster fans events out to subscribers, typically websocket clients.
// A subscriber that does not keep up loses events instead of blocking the
// manager.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan types.Event]struct{}
	buffer int
}

// NewBroadcaster returns a Broadcaster whose subscriber channels hold up to
// buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{subs: make(map[chan types.Event]struct{}), buffer: buffer}
}

func (b *Broadcaster) Publish(e Event) {
	out := types.Event{
		ID:     uuid.NewString(),
		Name:   e.Name,
		Time:   e.Time.UnixMilli(),
		Fields: e.Fields,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- out:
		default:
			eventsDroppedTotal.Inc()
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan types.Event, func()) {
	ch := make(chan types.Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// MultiPublisher forwards every event to each publisher in order.
type MultiPublisher []EventPublisher

func (mp MultiPublisher) Publish(e Event) {
	for _, p := range mp {
		p.Publish(e)
	}
}
