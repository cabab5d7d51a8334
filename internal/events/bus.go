// Package events provides the in-process publish/subscribe bus that connects
// submission persistence to notification dispatch.
//
// Delivery is synchronous: Publish calls every handler registered for the
// event name on the caller's goroutine, in registration order. The bus does
// not recover handler panics; a panicking handler aborts the remaining
// handlers of that Publish call and the panic reaches the publisher.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Event is a published payload. Name selects the subscribers.
type Event interface {
	EventName() string
}

// Handler processes one event.
type Handler func(ctx context.Context, e Event)

// Bus is a synchronous publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers handler for events named name.
func (b *Bus) Subscribe(name string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Publish delivers e to every handler subscribed to e.EventName().
// Publishing with no subscribers is a no-op.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e == nil {
		return
	}
	name := e.EventName()

	// Snapshot so handlers may subscribe without deadlocking.
	b.mu.RLock()
	matched := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	b.logger.Debug().
		Str("event", name).
		Int("handlers", len(matched)).
		Msg("event emitted")

	for _, h := range matched {
		h(ctx, e)
	}
}

// HasSubscribers reports whether any handler is registered for name.
func (b *Bus) HasSubscribers(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name]) > 0
}
