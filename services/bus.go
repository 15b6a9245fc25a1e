package services

import (
	"log"
	"sync"
)

// The event bus carries engine notifications to external subscribers
// (dashboards, notifiers, API consumers). Delivery is best-effort and
// fire-and-forget: a slow subscriber drops events, it never blocks the
// engine.

// EventType names an engine notification.
type EventType string

const (
	EventNetworkUpdated  EventType = "network:updated"
	EventContentDecayed  EventType = "content:decayed"
	EventCycleCompleted  EventType = "payout:cycle:completed"
	EventEmergencyActive EventType = "emergency:mode:activated"
	EventBatchCompleted  EventType = "batch:completed"
	EventHealthChecked   EventType = "health:checked"
)

// Event is a single engine notification.
type Event struct {
	Type EventType
	Data interface{}
}

// EventBus fans events out to subscriber channels. It is owned by the
// engine facade and passed explicitly; there is no package-level instance.
type EventBus struct {
	subscribers map[EventType][]chan Event
	mu          sync.RWMutex
	closed      bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
	}
}

// Subscribe registers ch for the given event types. The caller owns the
// channel and should size its buffer for the burst it can tolerate.
func (b *EventBus) Subscribe(ch chan Event, types ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, t := range types {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
}

// Unsubscribe removes ch from the given event types.
func (b *EventBus) Unsubscribe(ch chan Event, types ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range types {
		subs := b.subscribers[t]
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every subscriber without blocking. Events
// for subscribers with full buffers are dropped.
func (b *EventBus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subscribers[evt.Type] {
		select {
		case ch <- evt:
		default:
			log.Printf("Event %s dropped for slow subscriber", evt.Type)
		}
	}
}

// Close closes all subscriber channels and clears the registry.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	seen := make(map[chan Event]bool)
	for t, subs := range b.subscribers {
		for _, ch := range subs {
			if !seen[ch] {
				seen[ch] = true
				close(ch)
			}
		}
		delete(b.subscribers, t)
	}
}
