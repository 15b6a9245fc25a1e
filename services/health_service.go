package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"onusone/config"
	"onusone/models"
	"onusone/utils"
)

const (
	// economicsHealthFloor marks economics degraded below this health score.
	economicsHealthFloor = 50.0
	// economicsHealthCritical marks economics unhealthy at or below this.
	economicsHealthCritical = 10.0
	// activeNodeRatioFloor marks economics degraded when fewer nodes answer.
	activeNodeRatioFloor = 0.7

	// decayAccelerationCeiling marks decay degraded above this factor.
	decayAccelerationCeiling = 3.0
	// decayCorrelationFloor marks decay degraded below this correlation.
	decayCorrelationFloor = 0.3

	// payoutStuckAfter marks payout degraded when a cycle runs longer.
	payoutStuckAfter = 2 * time.Hour
	// payoutDeadAfter marks payout unhealthy when a cycle runs longer.
	payoutDeadAfter = 4 * time.Hour

	// consecutiveFailureLimit triggers emergency mode when this many health
	// checks fail back to back.
	consecutiveFailureLimit = 3
)

// HealthMonitor probes the economics, decay and payout subsystems on a fixed
// interval, reduces them to a composite level and escalates sustained
// failures to the emergency coordinator.
type HealthMonitor struct {
	cfg       *config.Config
	metrics   *MetricsService
	burns     *BurnService
	payouts   *PayoutService
	emergency *EmergencyCoordinator
	ledger    LedgerExecutor
	bus       *EventBus

	mu       sync.RWMutex
	state    models.SystemHealthState
	failures int

	stopChan  chan struct{}
	isRunning bool
}

func NewHealthMonitor(cfg *config.Config, metrics *MetricsService, burns *BurnService, payouts *PayoutService, emergency *EmergencyCoordinator, ledger LedgerExecutor, bus *EventBus) *HealthMonitor {
	return &HealthMonitor{
		cfg:       cfg,
		metrics:   metrics,
		burns:     burns,
		payouts:   payouts,
		emergency: emergency,
		ledger:    ledger,
		bus:       bus,
		state: models.SystemHealthState{
			Economics: models.StatusHealthy,
			Decay:     models.StatusHealthy,
			Payout:    models.StatusHealthy,
			Overall:   models.HealthExcellent,
		},
	}
}

// Start begins the periodic health check.
func (hm *HealthMonitor) Start() {
	if hm.isRunning {
		return
	}
	hm.isRunning = true
	hm.stopChan = make(chan struct{})

	go hm.checkLoop()
	log.Printf("✓ Health monitor started (interval: %v)", hm.cfg.HealthCheckIntervalDuration())
}

// Stop halts the periodic check.
func (hm *HealthMonitor) Stop() {
	if !hm.isRunning {
		return
	}
	hm.isRunning = false
	close(hm.stopChan)
	log.Println("Health monitor stopped")
}

func (hm *HealthMonitor) checkLoop() {
	ticker := time.NewTicker(hm.cfg.HealthCheckIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hm.runCheck(time.Now())
		case <-hm.stopChan:
			return
		}
	}
}

func (hm *HealthMonitor) runCheck(now time.Time) {
	state, err := hm.Check(now)

	hm.mu.Lock()
	if err != nil {
		hm.failures++
		log.Printf("Health check failed (%d consecutive): %v", hm.failures, err)
		if hm.failures == consecutiveFailureLimit {
			hm.mu.Unlock()
			hm.emergency.Trigger("consecutive health check failures")
			hm.mu.Lock()
		}
	} else {
		hm.failures = 0
	}
	hm.mu.Unlock()

	if hm.bus != nil {
		hm.bus.Publish(Event{Type: EventHealthChecked, Data: *state})
	}
}

// Check probes all subsystems once and returns the composite state. The
// error is non-nil only when a probe itself failed (as opposed to reporting
// a degraded subsystem).
func (hm *HealthMonitor) Check(now time.Time) (*models.SystemHealthState, error) {
	metrics := hm.metrics.Snapshot()
	decay := hm.burns.DecayMetrics()

	state := models.SystemHealthState{
		CheckedAt: now,
		Details:   make(map[string]string),
	}

	var probeErr error
	state.Economics, probeErr = hm.checkEconomics(metrics, state.Details)
	state.Decay = hm.checkDecay(decay, state.Details)
	state.Payout = hm.checkPayout(now, state.Details)
	state.Overall = state.Reduce()

	hm.mu.Lock()
	hm.state = state
	hm.mu.Unlock()

	// Emergency thresholds are evaluated on the same cadence as health.
	hm.emergency.Evaluate(metrics, decay)

	return &state, probeErr
}

func (hm *HealthMonitor) checkEconomics(metrics models.NetworkMetrics, details map[string]string) (models.SubsystemStatus, error) {
	status := models.StatusHealthy

	if metrics.NetworkHealth < economicsHealthFloor {
		status = models.StatusDegraded
		details["economics"] = fmt.Sprintf("network health %.1f below %.0f", metrics.NetworkHealth, economicsHealthFloor)
	}
	if metrics.TotalNodes > 0 {
		ratio := float64(metrics.ActiveNodes) / float64(metrics.TotalNodes)
		if ratio < activeNodeRatioFloor {
			status = models.StatusDegraded
			details["economics"] = fmt.Sprintf("active node ratio %.2f below %.2f", ratio, activeNodeRatioFloor)
		}
	}
	if metrics.NetworkHealth <= economicsHealthCritical {
		status = models.StatusUnhealthy
		details["economics"] = fmt.Sprintf("network health %.1f at critical level", metrics.NetworkHealth)
	}

	// Probe the ledger API version when a ledger is configured. A transport
	// failure here counts as a check failure, not just degradation.
	if hm.ledgerProbeEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		version, err := hm.ledger.Version(ctx)
		cancel()
		if err != nil {
			details["ledger"] = fmt.Sprintf("version probe failed: %v", err)
			return status, fmt.Errorf("ledger version probe: %w", err)
		}
		versionStatus, supported := utils.CheckLedgerVersion(version, nil)
		details["ledger_version"] = fmt.Sprintf("%s (%s)", version, versionStatus)
		if !supported && status == models.StatusHealthy {
			status = models.StatusDegraded
			details["economics"] = fmt.Sprintf("ledger API version %s is %s", version, versionStatus)
		}
	}

	return status, nil
}

func (hm *HealthMonitor) ledgerProbeEnabled() bool {
	if hm.ledger == nil {
		return false
	}
	if client, ok := hm.ledger.(*LedgerClient); ok {
		return client.endpoint != ""
	}
	return true
}

func (hm *HealthMonitor) checkDecay(decay models.DecayMetrics, details map[string]string) models.SubsystemStatus {
	if decay.AverageAcceleration >= emergencyAcceleration {
		details["decay"] = fmt.Sprintf("acceleration %.2f at emergency level", decay.AverageAcceleration)
		return models.StatusUnhealthy
	}
	if decay.AverageAcceleration > decayAccelerationCeiling {
		details["decay"] = fmt.Sprintf("acceleration %.2f above %.1f", decay.AverageAcceleration, decayAccelerationCeiling)
		return models.StatusDegraded
	}
	if decay.QualityCorrelation < decayCorrelationFloor {
		details["decay"] = fmt.Sprintf("quality correlation %.2f below %.2f", decay.QualityCorrelation, decayCorrelationFloor)
		return models.StatusDegraded
	}
	return models.StatusHealthy
}

func (hm *HealthMonitor) checkPayout(now time.Time, details map[string]string) models.SubsystemStatus {
	inProgress, since := hm.payouts.InProgress()
	if !inProgress {
		return models.StatusHealthy
	}

	elapsed := now.Sub(since)
	if elapsed > payoutDeadAfter {
		details["payout"] = fmt.Sprintf("cycle running for %v", elapsed.Round(time.Minute))
		return models.StatusUnhealthy
	}
	if elapsed > payoutStuckAfter {
		details["payout"] = fmt.Sprintf("cycle running for %v", elapsed.Round(time.Minute))
		return models.StatusDegraded
	}
	return models.StatusHealthy
}

// State returns the latest composite health snapshot.
func (hm *HealthMonitor) State() models.SystemHealthState {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.state
}
