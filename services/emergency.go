package services

import (
	"log"
	"sync"
	"time"

	"onusone/config"
	"onusone/models"
)

// Emergency trigger thresholds.
const (
	emergencyCapacityRatio = 0.8
	emergencyHealthFloor   = 30.0
	emergencyAcceleration  = 5.0
)

// EmergencyCoordinator owns the engine-wide emergency mode. Entry is
// idempotent: repeated triggers while active change nothing and emit no
// further notifications. Recovery is manual by default; automatic recovery
// after a run of clean health checks is opt-in via config.
type EmergencyCoordinator struct {
	cfg   *config.Config
	bus   *EventBus
	burns *BurnService

	mu            sync.Mutex
	active        bool
	activatedAt   time.Time
	reason        string
	healthyChecks int
}

func NewEmergencyCoordinator(cfg *config.Config, bus *EventBus, burns *BurnService) *EmergencyCoordinator {
	return &EmergencyCoordinator{
		cfg:   cfg,
		bus:   bus,
		burns: burns,
	}
}

// Active reports whether emergency mode is engaged.
func (ec *EmergencyCoordinator) Active() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.active
}

// Status returns the current emergency state for reporting.
func (ec *EmergencyCoordinator) Status() map[string]interface{} {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	status := map[string]interface{}{
		"active": ec.active,
	}
	if ec.active {
		status["activated_at"] = ec.activatedAt
		status["reason"] = ec.reason
	}
	return status
}

// BudgetFactor is the multiplier applied to the payout budget ceiling and
// reward multipliers: 1.0 normally, the configured factor in emergency mode.
func (ec *EmergencyCoordinator) BudgetFactor() float64 {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if ec.active {
		return ec.cfg.Engine.EmergencyPayoutFactor
	}
	return 1.0
}

// Trigger engages emergency mode. Returns true if this call performed the
// transition; false if the mode was already active.
func (ec *EmergencyCoordinator) Trigger(reason string) bool {
	ec.mu.Lock()
	if ec.active {
		ec.mu.Unlock()
		return false
	}
	ec.active = true
	ec.activatedAt = time.Now()
	ec.reason = reason
	ec.healthyChecks = 0
	ec.mu.Unlock()

	log.Printf("⚠️ EMERGENCY MODE ACTIVATED: %s", reason)

	affected := 0
	if ec.burns != nil {
		affected = ec.burns.ApplyQualityPenalty(ec.cfg.Engine.EmergencyQualityPenalty)
	}

	if ec.bus != nil {
		ec.bus.Publish(Event{Type: EventEmergencyActive, Data: map[string]interface{}{
			"reason":           reason,
			"activated_at":     ec.activatedAt,
			"penalty_applied":  ec.cfg.Engine.EmergencyQualityPenalty,
			"items_penalized":  affected,
			"payout_factor":    ec.cfg.Engine.EmergencyPayoutFactor,
		}})
	}
	return true
}

// Reset clears emergency mode. The quality penalties already applied to
// content items are intentionally left in place; they age out as items decay.
func (ec *EmergencyCoordinator) Reset() {
	ec.mu.Lock()
	wasActive := ec.active
	ec.active = false
	ec.reason = ""
	ec.healthyChecks = 0
	ec.mu.Unlock()

	if wasActive {
		log.Println("✓ Emergency mode reset")
	}
}

// Evaluate inspects the current metrics against the emergency thresholds.
// Called by the health monitor on every check. When emergency mode is active
// and auto-recovery is enabled, a run of consecutive clean evaluations
// resets the mode.
func (ec *EmergencyCoordinator) Evaluate(metrics models.NetworkMetrics, decay models.DecayMetrics) {
	clean := true

	switch {
	case metrics.CapacityRatio() >= emergencyCapacityRatio:
		clean = false
		ec.Trigger("message volume at or above 80% of network capacity")
	case metrics.NetworkHealth <= emergencyHealthFloor:
		clean = false
		ec.Trigger("network health at or below critical floor")
	case decay.AverageAcceleration >= emergencyAcceleration:
		clean = false
		ec.Trigger("decay acceleration at emergency level")
	}

	if !ec.cfg.Engine.AutoRecover {
		return
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()

	if !ec.active {
		return
	}
	if clean {
		ec.healthyChecks++
		if ec.healthyChecks >= ec.cfg.Engine.AutoRecoverChecks {
			ec.active = false
			ec.reason = ""
			ec.healthyChecks = 0
			log.Println("✓ Emergency mode auto-recovered after consecutive clean checks")
		}
	} else {
		ec.healthyChecks = 0
	}
}
