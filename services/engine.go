package services

import (
	"log"
	"time"

	"onusone/config"
	"onusone/models"
)

// Engine is the orchestration facade over the decay, burn, payout and
// health machinery. External code (HTTP handlers, the Discord notifier)
// talks to the engine; the services behind it stay internal to the wiring.
type Engine struct {
	cfg *config.Config

	Bus       *EventBus
	Metrics   *MetricsService
	Profiles  *ProfileService
	Store     ContentStore
	Burns     *BurnService
	Payouts   *PayoutService
	Emergency *EmergencyCoordinator
	Health    *HealthMonitor

	mongo  *MongoService
	ledger LedgerExecutor

	startedAt time.Time
}

// NewEngine wires the full service graph. The content store and ledger are
// injectable so the hosting network can supply its own implementations.
func NewEngine(cfg *config.Config, store ContentStore, ledger LedgerExecutor, mongo *MongoService) *Engine {
	bus := NewEventBus()
	metrics := NewMetricsService(bus)
	profiles := NewProfileService(cfg, mongo)
	burns := NewBurnService(cfg, store, ledger, bus, mongo)
	emergency := NewEmergencyCoordinator(cfg, bus, burns)
	payouts := NewPayoutService(cfg, profiles, metrics, burns, emergency, bus, mongo)
	health := NewHealthMonitor(cfg, metrics, burns, payouts, emergency, ledger, bus)

	return &Engine{
		cfg:       cfg,
		Bus:       bus,
		Metrics:   metrics,
		Profiles:  profiles,
		Store:     store,
		Burns:     burns,
		Payouts:   payouts,
		Emergency: emergency,
		Health:    health,
		mongo:     mongo,
		ledger:    ledger,
	}
}

// Start launches the periodic services.
func (e *Engine) Start() {
	e.startedAt = time.Now()
	e.Burns.Start()
	e.Payouts.Start()
	e.Health.Start()
	log.Println("✓ Orchestration engine started")
}

// Shutdown stops the periodic services and closes the event bus.
func (e *Engine) Shutdown() {
	e.Health.Stop()
	e.Payouts.Stop()
	e.Burns.Stop()
	e.Bus.Close()
	log.Println("Orchestration engine stopped")
}

// ForcePayoutCycle runs a payout cycle immediately. Fails fast if a cycle is
// already in progress.
func (e *Engine) ForcePayoutCycle() (*models.CycleStats, error) {
	return e.Payouts.RunCycle()
}

// ForceBurnSweep runs a burn sweep immediately.
func (e *Engine) ForceBurnSweep() *models.SweepResult {
	return e.Burns.Sweep(time.Now())
}

// ResetEmergency manually clears emergency mode.
func (e *Engine) ResetEmergency() {
	e.Emergency.Reset()
}

// EconomicState is the aggregate economic read model served by the API.
func (e *Engine) EconomicState() map[string]interface{} {
	metrics := e.Metrics.Snapshot()
	decay := e.Burns.DecayMetrics()

	var totalStaked, totalBurned int64
	items := e.Store.List()
	for _, item := range items {
		totalStaked += item.CurrentStake()
		totalBurned += item.BurnedTotal
	}

	state := map[string]interface{}{
		"network":           metrics,
		"decay":             decay,
		"content_tracked":   len(items),
		"content_staked":    totalStaked,
		"content_burned":    totalBurned,
		"profiles":          e.Profiles.Count(),
		"emergency":         e.Emergency.Status(),
		"payout_budget_cap": e.cfg.Engine.PayoutCap * e.Emergency.BudgetFactor(),
	}
	if cycle := e.Payouts.LastCycle(); cycle != nil {
		state["last_cycle"] = cycle
	}
	return state
}

// SystemStatus is the operational read model: health, uptime and the state
// of the periodic services.
func (e *Engine) SystemStatus() map[string]interface{} {
	health := e.Health.State()
	inProgress, since := e.Payouts.InProgress()

	status := map[string]interface{}{
		"health":          health,
		"emergency":       e.Emergency.Status(),
		"uptime":          time.Since(e.startedAt).Round(time.Second).String(),
		"cycle_running":   inProgress,
		"sweep_interval":  e.cfg.SweepIntervalDuration().String(),
		"payout_interval": e.cfg.PayoutIntervalDuration().String(),
	}
	if inProgress {
		status["cycle_started_at"] = since
	}
	if sweep := e.Burns.LastSweepResult(); sweep != nil {
		status["last_sweep"] = sweep
	}
	return status
}
