package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"onusone/models"
)

func TestMetricsPartialUpdate(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()
	ms := NewMetricsService(bus)

	events := make(chan Event, 2)
	bus.Subscribe(events, EventNetworkUpdated)

	total, volume := 42, int64(500)
	ms.Update(models.NetworkMetricsUpdate{TotalNodes: &total, MessageVolume: &volume})

	snapshot := ms.Snapshot()
	require.Equal(t, 42, snapshot.TotalNodes)
	require.Equal(t, int64(500), snapshot.MessageVolume)
	// Untouched fields keep their defaults.
	require.InDelta(t, 100.0, snapshot.NetworkHealth, 0.001)
	require.False(t, snapshot.LastUpdated.IsZero())

	require.Len(t, events, 1)
}

func TestMetricsCapacityRatio(t *testing.T) {
	m := models.NetworkMetrics{MessageVolume: 80, MaxNetworkCapacity: 100}
	require.InDelta(t, 0.8, m.CapacityRatio(), 0.001)

	m.MaxNetworkCapacity = 0
	require.InDelta(t, 0.0, m.CapacityRatio(), 0.001)
}
