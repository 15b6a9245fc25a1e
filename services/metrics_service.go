package services

import (
	"sync"
	"time"

	"onusone/models"
)

// MetricsService holds the live network metrics. It is mutated only through
// Update calls pushed by integrations and read as a snapshot at the start of
// every burn/payout cycle.
type MetricsService struct {
	mu      sync.RWMutex
	metrics models.NetworkMetrics
	bus     *EventBus
}

func NewMetricsService(bus *EventBus) *MetricsService {
	return &MetricsService{
		metrics: models.NetworkMetrics{
			NetworkHealth:    100,
			UptimePercentage: 100,
		},
		bus: bus,
	}
}

// Update merges a partial update into the current metrics and notifies
// subscribers. Nil fields are left untouched.
func (ms *MetricsService) Update(u models.NetworkMetricsUpdate) models.NetworkMetrics {
	ms.mu.Lock()

	if u.TotalNodes != nil {
		ms.metrics.TotalNodes = *u.TotalNodes
	}
	if u.ActiveNodes != nil {
		ms.metrics.ActiveNodes = *u.ActiveNodes
	}
	if u.TotalStaked != nil {
		ms.metrics.TotalStaked = *u.TotalStaked
	}
	if u.NetworkHealth != nil {
		ms.metrics.NetworkHealth = *u.NetworkHealth
	}
	if u.MessageVolume != nil {
		ms.metrics.MessageVolume = *u.MessageVolume
	}
	if u.MaxNetworkCapacity != nil {
		ms.metrics.MaxNetworkCapacity = *u.MaxNetworkCapacity
	}
	if u.AverageLatency != nil {
		ms.metrics.AverageLatency = *u.AverageLatency
	}
	if u.UptimePercentage != nil {
		ms.metrics.UptimePercentage = *u.UptimePercentage
	}
	ms.metrics.LastUpdated = time.Now()

	snapshot := ms.metrics
	ms.mu.Unlock()

	if ms.bus != nil {
		ms.bus.Publish(Event{Type: EventNetworkUpdated, Data: snapshot})
	}
	return snapshot
}

// Snapshot returns the current metrics by value. Cycles operate on whatever
// snapshot is current when they start; they never wait for an update.
func (ms *MetricsService) Snapshot() models.NetworkMetrics {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.metrics
}
