// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned when publishing to a bus that has been shut down.
var ErrClosed = errors.New("events: bus is shut down")

// Bus fans state changes out to presentation layers using a Pub/Sub model.
type Bus struct {
	logger *zap.Logger

	subscribers map[Type][]chan Event
	mu          sync.RWMutex
	bufferSize  int

	// activePosts tracks in-flight Publish/Offer calls so Shutdown can close
	// channels without racing a sender.
	activePosts sync.WaitGroup

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	isShutdown   bool
	shutdownMu   sync.Mutex

	dropped uint64
}

// NewBus initializes a Bus whose subscriber channels hold bufferSize events.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Bus{
		logger:       logger.Named("events"),
		subscribers:  make(map[Type][]chan Event),
		bufferSize:   bufferSize,
		shutdownChan: make(chan struct{}),
	}
}

func (b *Bus) enter() bool {
	b.shutdownMu.Lock()
	defer b.shutdownMu.Unlock()
	if b.isShutdown {
		return false
	}
	b.activePosts.Add(1)
	return true
}

func (b *Bus) snapshot(t Type) []chan Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.subscribers[t]
	if len(subs) == 0 {
		return nil
	}
	out := make([]chan Event, len(subs))
	copy(out, subs)
	return out
}

func newEvent(t Type, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      t,
		Payload:   payload,
	}
}

// Publish delivers an event to every subscriber of its type, blocking while a
// subscriber's buffer is full.
func (b *Bus) Publish(ctx context.Context, t Type, payload any) error {
	if !b.enter() {
		return ErrClosed
	}
	defer b.activePosts.Done()

	ev := newEvent(t, payload)
	for _, ch := range b.snapshot(t) {
		select {
		case ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.shutdownChan:
			return ErrClosed
		}
	}
	return nil
}

// Offer delivers an event without blocking. Subscribers whose buffers are
// full miss it. The state container uses Offer so that a slow viewer can
// never stall the action processor.
func (b *Bus) Offer(t Type, payload any) {
	if !b.enter() {
		return
	}
	defer b.activePosts.Done()

	ev := newEvent(t, payload)
	for _, ch := range b.snapshot(t) {
		select {
		case ch <- ev:
		default:
			b.shutdownMu.Lock()
			b.dropped++
			b.shutdownMu.Unlock()
		}
	}
}

// Dropped returns how many deliveries Offer has skipped.
func (b *Bus) Dropped() uint64 {
	b.shutdownMu.Lock()
	defer b.shutdownMu.Unlock()
	return b.dropped
}

// Subscribe returns a channel receiving the given event types and a function
// that detaches it. The channel is closed by Shutdown.
func (b *Bus) Subscribe(types ...Type) (<-chan Event, func()) {
	if len(types) == 0 {
		panic("events: must subscribe to at least one event type")
	}

	b.shutdownMu.Lock()
	closed := b.isShutdown
	b.shutdownMu.Unlock()
	if closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	subscribed := make([]Type, len(types))
	copy(subscribed, types)
	for _, t := range subscribed {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, t := range subscribed {
			subs := b.subscribers[t]
			for i, c := range subs {
				if c == ch {
					copy(subs[i:], subs[i+1:])
					b.subscribers[t] = subs[:len(subs)-1]
					if len(b.subscribers[t]) == 0 {
						delete(b.subscribers, t)
					}
					break
				}
			}
		}
	}
	return ch, unsubscribe
}

// Shutdown stops the bus and closes every subscriber channel. It is safe to
// call more than once.
func (b *Bus) Shutdown() {
	b.shutdownOnce.Do(func() {
		b.shutdownMu.Lock()
		b.isShutdown = true
		b.shutdownMu.Unlock()

		close(b.shutdownChan)
		b.activePosts.Wait()

		b.mu.Lock()
		unique := make(map[chan Event]struct{})
		for _, subs := range b.subscribers {
			for _, ch := range subs {
				unique[ch] = struct{}{}
			}
		}
		for ch := range unique {
			close(ch)
		}
		b.subscribers = make(map[Type][]chan Event)
		b.mu.Unlock()

		b.logger.Debug("Event bus shut down.", zap.Int("subscribers", len(unique)), zap.Uint64("dropped", b.Dropped()))
	})
}
