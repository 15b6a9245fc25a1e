package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onusone/models"
)

func newTestEngine() *Engine {
	cfg := testConfig()
	store := NewMemoryContentStore()
	return NewEngine(cfg, store, &fakeLedger{}, nil)
}

func TestEngineEconomicState(t *testing.T) {
	engine := newTestEngine()
	defer engine.Bus.Close()

	engine.Store.Put(models.ContentItem{ID: "a", CreatedAt: time.Now(), StakeTotal: 100, BurnedTotal: 25})
	engine.Store.Put(models.ContentItem{ID: "b", CreatedAt: time.Now(), StakeTotal: 50})
	engine.Profiles.Register(models.UserEconomicProfile{UserID: "u1", TotalStaked: 100})

	state := engine.EconomicState()
	require.Equal(t, 2, state["content_tracked"])
	require.Equal(t, int64(125), state["content_staked"])
	require.Equal(t, int64(25), state["content_burned"])
	require.Equal(t, 1, state["profiles"])

	emergency := state["emergency"].(map[string]interface{})
	require.False(t, emergency["active"].(bool))
}

func TestEngineEmergencyShrinksBudget(t *testing.T) {
	engine := newTestEngine()
	defer engine.Bus.Close()

	before := engine.EconomicState()["payout_budget_cap"].(float64)

	engine.Emergency.Trigger("test")
	after := engine.EconomicState()["payout_budget_cap"].(float64)
	require.InDelta(t, before*0.5, after, 0.001)

	engine.ResetEmergency()
	restored := engine.EconomicState()["payout_budget_cap"].(float64)
	require.InDelta(t, before, restored, 0.001)
}

func TestEngineForceCycleConflict(t *testing.T) {
	engine := newTestEngine()
	defer engine.Bus.Close()

	engine.Payouts.mu.Lock()
	engine.Payouts.inProgress = true
	engine.Payouts.mu.Unlock()

	_, err := engine.ForcePayoutCycle()
	require.ErrorIs(t, err, ErrCycleInProgress)
}

func TestEngineForceBurnSweep(t *testing.T) {
	engine := newTestEngine()
	defer engine.Bus.Close()

	engine.Store.Put(models.ContentItem{
		ID:         "stale",
		CreatedAt:  time.Now().Add(-12 * time.Hour),
		StakeTotal: 100,
	})

	result := engine.ForceBurnSweep()
	require.Equal(t, 1, result.ItemsScanned)
	require.Equal(t, 1, result.ItemsBurned)

	status := engine.SystemStatus()
	require.NotNil(t, status["last_sweep"])
}
