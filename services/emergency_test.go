package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onusone/config"
	"onusone/models"
)

func newTestEmergency(cfg *config.Config) (*EmergencyCoordinator, *MemoryContentStore, *EventBus) {
	bus := NewEventBus()
	store := NewMemoryContentStore()
	burns := NewBurnService(cfg, store, &fakeLedger{}, bus, nil)
	return NewEmergencyCoordinator(cfg, bus, burns), store, bus
}

func TestTriggerIdempotentSingleNotification(t *testing.T) {
	ec, _, bus := newTestEmergency(testConfig())
	defer bus.Close()

	events := make(chan Event, 4)
	bus.Subscribe(events, EventEmergencyActive)

	require.True(t, ec.Trigger("first"))
	require.False(t, ec.Trigger("second"))
	require.True(t, ec.Active())

	require.Len(t, events, 1)
	evt := <-events
	data := evt.Data.(map[string]interface{})
	require.Equal(t, "first", data["reason"])
}

func TestTriggerAppliesQualityPenalty(t *testing.T) {
	cfg := testConfig()
	ec, store, bus := newTestEmergency(cfg)
	defer bus.Close()

	store.Put(models.ContentItem{ID: "plain", CreatedAt: time.Now(), StakeTotal: 100})
	store.Put(models.ContentItem{ID: "archive", CreatedAt: time.Now(), StakeTotal: 100, Preserved: true})

	ec.Trigger("capacity")

	item, _ := store.Get("plain")
	require.Equal(t, cfg.Engine.EmergencyQualityPenalty, item.QualityPenalty)
	item, _ = store.Get("archive")
	require.Equal(t, 0, item.QualityPenalty)
}

func TestBudgetFactor(t *testing.T) {
	cfg := testConfig()
	ec, _, bus := newTestEmergency(cfg)
	defer bus.Close()

	require.InDelta(t, 1.0, ec.BudgetFactor(), 0.001)
	ec.Trigger("test")
	require.InDelta(t, cfg.Engine.EmergencyPayoutFactor, ec.BudgetFactor(), 0.001)
	ec.Reset()
	require.InDelta(t, 1.0, ec.BudgetFactor(), 0.001)
}

func TestEvaluateCapacityTrigger(t *testing.T) {
	ec, _, bus := newTestEmergency(testConfig())
	defer bus.Close()

	metrics := models.NetworkMetrics{
		NetworkHealth:      100,
		MessageVolume:      80,
		MaxNetworkCapacity: 100,
	}
	ec.Evaluate(metrics, models.DecayMetrics{AverageAcceleration: 1, QualityCorrelation: 1})
	require.True(t, ec.Active())
}

func TestEvaluateHealthFloorTrigger(t *testing.T) {
	ec, _, bus := newTestEmergency(testConfig())
	defer bus.Close()

	// Health at 25 forces the transition even with everything else clean.
	metrics := models.NetworkMetrics{NetworkHealth: 25}
	ec.Evaluate(metrics, models.DecayMetrics{AverageAcceleration: 1, QualityCorrelation: 1})
	require.True(t, ec.Active())
}

func TestEvaluateAccelerationTrigger(t *testing.T) {
	ec, _, bus := newTestEmergency(testConfig())
	defer bus.Close()

	metrics := models.NetworkMetrics{NetworkHealth: 100}
	ec.Evaluate(metrics, models.DecayMetrics{AverageAcceleration: 5.0, QualityCorrelation: 1})
	require.True(t, ec.Active())
}

func TestEvaluateCleanDoesNotTrigger(t *testing.T) {
	ec, _, bus := newTestEmergency(testConfig())
	defer bus.Close()

	metrics := models.NetworkMetrics{
		NetworkHealth:      85,
		MessageVolume:      10,
		MaxNetworkCapacity: 100,
	}
	ec.Evaluate(metrics, models.DecayMetrics{AverageAcceleration: 1, QualityCorrelation: 1})
	require.False(t, ec.Active())
}

func TestManualReset(t *testing.T) {
	ec, _, bus := newTestEmergency(testConfig())
	defer bus.Close()

	ec.Trigger("test")
	require.True(t, ec.Active())

	ec.Reset()
	require.False(t, ec.Active())

	// Re-triggering after reset emits again.
	events := make(chan Event, 2)
	bus.Subscribe(events, EventEmergencyActive)
	require.True(t, ec.Trigger("again"))
	require.Len(t, events, 1)
}

func TestAutoRecoverDisabledByDefault(t *testing.T) {
	ec, _, bus := newTestEmergency(testConfig())
	defer bus.Close()

	ec.Trigger("test")
	clean := models.NetworkMetrics{NetworkHealth: 100}
	for i := 0; i < 10; i++ {
		ec.Evaluate(clean, models.DecayMetrics{AverageAcceleration: 1, QualityCorrelation: 1})
	}
	require.True(t, ec.Active(), "recovery must stay manual unless enabled")
}

func TestAutoRecoverAfterConsecutiveCleanChecks(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.AutoRecover = true
	cfg.Engine.AutoRecoverChecks = 3
	ec, _, bus := newTestEmergency(cfg)
	defer bus.Close()

	ec.Trigger("test")

	clean := models.NetworkMetrics{NetworkHealth: 100}
	decay := models.DecayMetrics{AverageAcceleration: 1, QualityCorrelation: 1}

	ec.Evaluate(clean, decay)
	ec.Evaluate(clean, decay)
	require.True(t, ec.Active())

	// A dirty check resets the streak.
	ec.Evaluate(models.NetworkMetrics{NetworkHealth: 25}, decay)
	require.True(t, ec.Active())

	ec.Evaluate(clean, decay)
	ec.Evaluate(clean, decay)
	ec.Evaluate(clean, decay)
	require.False(t, ec.Active())
}
