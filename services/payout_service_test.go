package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onusone/config"
	"onusone/models"
)

// stubSource is an EligibleUserSource with a fixed base reward.
type stubSource struct {
	users []models.UserEconomicProfile
	base  float64
}

func (s stubSource) Candidates() []models.UserEconomicProfile { return s.users }

func (s stubSource) BaseReward(models.UserEconomicProfile) float64 { return s.base }

func newTestPayoutService(cfg *config.Config, source EligibleUserSource) (*PayoutService, *MetricsService, *BurnService, *EmergencyCoordinator, *EventBus) {
	bus := NewEventBus()
	metrics := NewMetricsService(bus)
	burns := NewBurnService(cfg, NewMemoryContentStore(), &fakeLedger{}, bus, nil)
	emergency := NewEmergencyCoordinator(cfg, bus, burns)
	payouts := NewPayoutService(cfg, source, metrics, burns, emergency, bus, nil)
	return payouts, metrics, burns, emergency, bus
}

func eligibleUser(id string, uptime, reputation float64, staked int64) models.UserEconomicProfile {
	return models.UserEconomicProfile{
		UserID:          id,
		NodeUptime:      uptime,
		ReputationScore: reputation,
		TotalStaked:     staked,
		CreatedAt:       time.Now(),
	}
}

func TestCalculatePayoutPerformanceBonuses(t *testing.T) {
	cfg := testConfig()
	source := stubSource{base: 10}
	ps, metricsSvc, burns, _, bus := newTestPayoutService(cfg, source)
	defer bus.Close()

	user := eligibleUser("u1", 96, 85, 1200)
	metrics := metricsSvc.Snapshot()
	decay := burns.DecayMetrics()

	calc := ps.calculatePayout(user, metrics, decay, 1.0)
	require.InDelta(t, 10.0, calc.BaseReward, 0.001)
	// +20% uptime, +15% reputation, +10% stake weight
	require.InDelta(t, 4.5, calc.PerformanceBonus, 0.001)
	// +10% contribution, +10% health (default 100), +5% decay quality (default 100)
	require.InDelta(t, 2.5, calc.NetworkBonus, 0.001)
	require.InDelta(t, 17.0, calc.FinalPayout, 0.001)
}

func TestCalculatePayoutNoBonuses(t *testing.T) {
	cfg := testConfig()
	ps, metricsSvc, burns, _, bus := newTestPayoutService(cfg, stubSource{base: 10})
	defer bus.Close()

	health := 50.0
	metricsSvc.Update(models.NetworkMetricsUpdate{NetworkHealth: &health})

	// Below every performance threshold.
	user := eligibleUser("u1", 80, 40, 500)
	burns.mu.Lock()
	burns.decay.AverageScore = 50
	burns.mu.Unlock()

	calc := ps.calculatePayout(user, metricsSvc.Snapshot(), burns.DecayMetrics(), 1.0)
	require.InDelta(t, 0.0, calc.PerformanceBonus, 0.001)
	// Only the unconditional contribution bonus remains.
	require.InDelta(t, 1.0, calc.NetworkBonus, 0.001)
	require.InDelta(t, 11.0, calc.FinalPayout, 0.001)
}

func TestRunCycleEligibilityFilter(t *testing.T) {
	cfg := testConfig()
	source := stubSource{
		users: []models.UserEconomicProfile{
			eligibleUser("ok", 80, 50, 100),
			eligibleUser("low-uptime", 60, 50, 100),
			eligibleUser("low-stake", 80, 50, 5),
		},
		base: 10,
	}
	ps, _, _, _, bus := newTestPayoutService(cfg, source)
	defer bus.Close()

	stats, err := ps.RunCycle()
	require.NoError(t, err)
	require.Equal(t, 1, stats.UsersPaid)
	require.Equal(t, 0, stats.UsersRejected)

	_, err = ps.UserSummary("ok")
	require.NoError(t, err)
	_, err = ps.UserSummary("low-uptime")
	require.Error(t, err)
}

func TestRunCycleCapRejection(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.PayoutCap = 15
	source := stubSource{
		users: []models.UserEconomicProfile{
			eligibleUser("modest", 80, 50, 100),
			eligibleUser("whale", 96, 85, 5000),
		},
		base: 10,
	}
	ps, _, _, _, bus := newTestPayoutService(cfg, source)
	defer bus.Close()

	stats, err := ps.RunCycle()
	require.NoError(t, err)
	require.Equal(t, 1, stats.UsersPaid)
	require.Equal(t, 1, stats.UsersRejected)

	batches := ps.BatchHistory(1)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Errors, 1)
	require.Contains(t, batches[0].Errors[0], "whale")
	// The rejected payout is excluded from the batch total.
	require.InDelta(t, batches[0].TotalPayouts, batches[0].Payouts[0].FinalPayout, 0.001)

	_, err = ps.UserSummary("whale")
	require.Error(t, err)
}

func TestRunCycleAtMostOne(t *testing.T) {
	cfg := testConfig()
	ps, _, _, _, bus := newTestPayoutService(cfg, stubSource{base: 10})
	defer bus.Close()

	ps.mu.Lock()
	ps.inProgress = true
	ps.cycleStartedAt = time.Now()
	ps.mu.Unlock()

	_, err := ps.RunCycle()
	require.ErrorIs(t, err, ErrCycleInProgress)

	ps.mu.Lock()
	ps.inProgress = false
	ps.mu.Unlock()

	_, err = ps.RunCycle()
	require.NoError(t, err)
}

func TestRunCycleEmergencyHalvesPayouts(t *testing.T) {
	cfg := testConfig()
	source := stubSource{
		users: []models.UserEconomicProfile{eligibleUser("u1", 80, 50, 100)},
		base:  10,
	}
	ps, _, _, emergency, bus := newTestPayoutService(cfg, source)
	defer bus.Close()

	normal, err := ps.RunCycle()
	require.NoError(t, err)

	emergency.Trigger("test")

	halved, err := ps.RunCycle()
	require.NoError(t, err)
	require.True(t, halved.EmergencyMode)
	require.InDelta(t, normal.TotalPaid*cfg.Engine.EmergencyPayoutFactor, halved.TotalPaid, 0.001)

	batches := ps.BatchHistory(1)
	require.True(t, batches[0].EmergencyMode)
}

func TestRunCycleBatching(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.BatchSize = 50

	users := make([]models.UserEconomicProfile, 0, 120)
	for i := 0; i < 120; i++ {
		users = append(users, eligibleUser(fmt.Sprintf("user-%03d", i), 80, 50, 100))
	}
	ps, _, _, _, bus := newTestPayoutService(cfg, stubSource{users: users, base: 1})
	defer bus.Close()

	stats, err := ps.RunCycle()
	require.NoError(t, err)
	require.Equal(t, 3, stats.BatchCount)
	require.Equal(t, 120, stats.UsersPaid)

	batches := ps.BatchHistory(0)
	require.Len(t, batches, 3)
	require.Equal(t, 50, batches[0].UserCount)
	require.Equal(t, 50, batches[1].UserCount)
	require.Equal(t, 20, batches[2].UserCount)
}

func TestBatchHistoryBounded(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.BatchHistoryLimit = 5
	ps, _, _, _, bus := newTestPayoutService(cfg, stubSource{base: 10})
	defer bus.Close()

	for i := 0; i < 8; i++ {
		ps.recordBatch(&models.PayoutBatch{BatchID: fmt.Sprintf("batch-%d", i)})
	}

	batches := ps.BatchHistory(0)
	require.Len(t, batches, 5)
	require.Equal(t, "batch-3", batches[0].BatchID)
	require.Equal(t, "batch-7", batches[4].BatchID)
}

func TestUserSummaryAccumulates(t *testing.T) {
	cfg := testConfig()
	source := stubSource{
		users: []models.UserEconomicProfile{eligibleUser("u1", 80, 50, 100)},
		base:  10,
	}
	ps, _, _, _, bus := newTestPayoutService(cfg, source)
	defer bus.Close()

	_, err := ps.RunCycle()
	require.NoError(t, err)
	_, err = ps.RunCycle()
	require.NoError(t, err)

	summary, err := ps.UserSummary("u1")
	require.NoError(t, err)
	require.Equal(t, 2, summary.PayoutCount)
	require.InDelta(t, summary.TotalEarned/2, summary.AveragePayout, 0.001)
	require.False(t, summary.LastPayout.IsZero())
}

func TestRunCycleEmitsCompletionEvent(t *testing.T) {
	cfg := testConfig()
	source := stubSource{
		users: []models.UserEconomicProfile{eligibleUser("u1", 80, 50, 100)},
		base:  10,
	}
	ps, _, _, _, bus := newTestPayoutService(cfg, source)
	defer bus.Close()

	events := make(chan Event, 8)
	bus.Subscribe(events, EventCycleCompleted, EventBatchCompleted)

	_, err := ps.RunCycle()
	require.NoError(t, err)

	types := map[EventType]int{}
	for len(events) > 0 {
		types[(<-events).Type]++
	}
	require.Equal(t, 1, types[EventCycleCompleted])
	require.Equal(t, 1, types[EventBatchCompleted])
}
