package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := make(chan Event, 4)
	bus.Subscribe(ch, EventContentDecayed, EventCycleCompleted)

	bus.Publish(Event{Type: EventContentDecayed, Data: "first"})
	bus.Publish(Event{Type: EventCycleCompleted, Data: "second"})
	bus.Publish(Event{Type: EventNetworkUpdated, Data: "not subscribed"})

	require.Equal(t, "first", (<-ch).Data)
	require.Equal(t, "second", (<-ch).Data)

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := make(chan Event, 1)
	bus.Subscribe(ch, EventContentDecayed)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(Event{Type: EventContentDecayed, Data: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	// Only the buffered event survives; the rest were dropped.
	require.Len(t, ch, 1)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := make(chan Event, 4)
	bus.Subscribe(ch, EventHealthChecked)
	bus.Unsubscribe(ch, EventHealthChecked)

	bus.Publish(Event{Type: EventHealthChecked})
	require.Len(t, ch, 0)
}

func TestEventBusClose(t *testing.T) {
	bus := NewEventBus()

	ch := make(chan Event, 1)
	bus.Subscribe(ch, EventBatchCompleted)
	bus.Close()

	_, open := <-ch
	require.False(t, open)

	// Publishing after close is a no-op, not a panic.
	bus.Publish(Event{Type: EventBatchCompleted})
}
