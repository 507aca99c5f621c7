package event

import (
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/taskgraph/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// wildcard is the subscription key for handlers that receive every event.
const wildcard = "*"

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub event bus. Handlers run on the publisher's
// goroutine, so the store publishes only after releasing its lock.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	logger        *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported through
// logger; nil means they are discarded.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		subscriptions: make(map[string][]subscription),
		logger:        logger,
	}
}

// Subscribe registers a handler for a specific event type and returns an id
// for Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers a handler for all event types.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// Unsubscribe removes a subscription by id. Returns true if it was found.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id != id {
				continue
			}
			kept := make([]subscription, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			kept = append(kept, subs[i+1:]...)
			if len(kept) == 0 {
				delete(b.subscriptions, eventType)
			} else {
				b.subscriptions[eventType] = kept
			}
			return true
		}
	}
	return false
}

// Publish dispatches an event to its specific handlers, then to wildcard
// handlers, each group in registration order. A panicking handler is
// recovered and logged; delivery continues.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	specific := append([]subscription(nil), b.subscriptions[e.EventType()]...)
	all := append([]subscription(nil), b.subscriptions[wildcard]...)
	b.mu.RUnlock()

	for _, sub := range specific {
		b.safeCall(sub.handler, e)
	}
	for _, sub := range all {
		b.safeCall(sub.handler, e)
	}
}

// PublishAll publishes events in order.
func (b *Bus) PublishAll(events []Event) {
	for _, e := range events {
		b.Publish(e)
	}
}

func (b *Bus) safeCall(handler Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", e.EventType(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	handler(e)
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
