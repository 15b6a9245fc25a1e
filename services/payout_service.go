package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"onusone/config"
	"onusone/models"
)

// ErrCycleInProgress is returned when a cycle is requested while another is
// still running. At most one payout cycle runs at a time.
var ErrCycleInProgress = errors.New("payout cycle already in progress")

// Performance bonus thresholds and rates.
const (
	uptimeBonusThreshold     = 95.0
	uptimeBonusRate          = 0.20
	reputationBonusThreshold = 80.0
	reputationBonusRate      = 0.15
	stakeBonusUnit           = 1000.0
	stakeBonusRate           = 0.10

	healthBonusThreshold = 90.0
	healthBonusRate      = 0.10
	decayBonusThreshold  = 70.0
	decayBonusRate       = 0.05
)

// PayoutService runs the periodic reward distribution cycle: eligibility
// filtering, batch processing, bonus calculation and history tracking.
type PayoutService struct {
	cfg       *config.Config
	source    EligibleUserSource
	metrics   *MetricsService
	burns     *BurnService
	emergency *EmergencyCoordinator
	bus       *EventBus
	mongo     *MongoService

	mu             sync.RWMutex
	inProgress     bool
	cycleStartedAt time.Time
	lastCycle      *models.CycleStats
	history        []*models.PayoutBatch
	summaries      map[string]*models.UserPayoutSummary

	stopChan  chan struct{}
	isRunning bool
}

func NewPayoutService(cfg *config.Config, source EligibleUserSource, metrics *MetricsService, burns *BurnService, emergency *EmergencyCoordinator, bus *EventBus, mongo *MongoService) *PayoutService {
	return &PayoutService{
		cfg:       cfg,
		source:    source,
		metrics:   metrics,
		burns:     burns,
		emergency: emergency,
		bus:       bus,
		mongo:     mongo,
		summaries: make(map[string]*models.UserPayoutSummary),
	}
}

// Start begins the periodic payout cycle.
func (ps *PayoutService) Start() {
	if ps.isRunning {
		return
	}
	ps.isRunning = true
	ps.stopChan = make(chan struct{})

	go ps.cycleLoop()
	log.Printf("✓ Payout cycle started (interval: %v)", ps.cfg.PayoutIntervalDuration())
}

// Stop halts the periodic cycle.
func (ps *PayoutService) Stop() {
	if !ps.isRunning {
		return
	}
	ps.isRunning = false
	close(ps.stopChan)
	log.Println("Payout cycle stopped")
}

func (ps *PayoutService) cycleLoop() {
	ticker := time.NewTicker(ps.cfg.PayoutIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := ps.RunCycle(); err != nil {
				log.Printf("Payout cycle skipped: %v", err)
			}
		case <-ps.stopChan:
			return
		}
	}
}

// InProgress reports whether a cycle is running and since when.
func (ps *PayoutService) InProgress() (bool, time.Time) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.inProgress, ps.cycleStartedAt
}

// RunCycle executes one full payout cycle. Fails fast with
// ErrCycleInProgress if another cycle is already running.
func (ps *PayoutService) RunCycle() (*models.CycleStats, error) {
	started := time.Now()

	ps.mu.Lock()
	if ps.inProgress {
		ps.mu.Unlock()
		return nil, ErrCycleInProgress
	}
	ps.inProgress = true
	ps.cycleStartedAt = started
	ps.mu.Unlock()

	defer func() {
		ps.mu.Lock()
		ps.inProgress = false
		ps.mu.Unlock()
	}()

	metrics := ps.metrics.Snapshot()
	decay := ps.burns.DecayMetrics()
	emergencyMode := ps.emergency.Active()
	budgetFactor := ps.emergency.BudgetFactor()

	if emergencyMode {
		log.Printf("Payout cycle running in emergency mode (budget factor %.2f)", budgetFactor)
	}

	if ps.mongo != nil {
		ps.mongo.InsertNetworkSnapshot(metrics)
	}

	candidates := ps.source.Candidates()
	eligible := make([]models.UserEconomicProfile, 0, len(candidates))
	for _, p := range candidates {
		if p.NodeUptime >= ps.cfg.Engine.MinEligibleUptime && p.TotalStaked >= ps.cfg.Engine.MinEligibleStake {
			eligible = append(eligible, p)
		}
	}

	stats := &models.CycleStats{
		Timestamp:     started,
		EmergencyMode: emergencyMode,
	}

	batchSize := ps.cfg.Engine.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for offset := 0; offset < len(eligible); offset += batchSize {
		end := offset + batchSize
		if end > len(eligible) {
			end = len(eligible)
		}

		batch := ps.processBatch(eligible[offset:end], metrics, decay, budgetFactor, emergencyMode)
		ps.recordBatch(batch)

		stats.BatchCount++
		stats.UsersPaid += batch.UserCount
		stats.UsersRejected += len(batch.Errors)
		stats.TotalPaid += batch.TotalPayouts
	}

	stats.Elapsed = time.Since(started).String()

	ps.mu.Lock()
	ps.lastCycle = stats
	ps.mu.Unlock()

	if ps.bus != nil {
		ps.bus.Publish(Event{Type: EventCycleCompleted, Data: *stats})
	}

	log.Printf("Payout cycle complete: %d batches, %d users paid, %d rejected, %.2f tokens in %s",
		stats.BatchCount, stats.UsersPaid, stats.UsersRejected, stats.TotalPaid, stats.Elapsed)
	return stats, nil
}

// processBatch pays one group of eligible users. A user whose payout fails
// validation is recorded in the batch errors and skipped; the batch itself
// always completes.
func (ps *PayoutService) processBatch(users []models.UserEconomicProfile, metrics models.NetworkMetrics, decay models.DecayMetrics, budgetFactor float64, emergencyMode bool) *models.PayoutBatch {
	batch := &models.PayoutBatch{
		BatchID:               uuid.NewString(),
		Timestamp:             time.Now(),
		NetworkHealthSnapshot: metrics.NetworkHealth,
		EmergencyMode:         emergencyMode,
	}

	ceiling := ps.cfg.Engine.PayoutCap * budgetFactor

	for _, user := range users {
		calc := ps.calculatePayout(user, metrics, decay, budgetFactor)

		if calc.FinalPayout > ceiling {
			batch.Errors = append(batch.Errors,
				fmt.Sprintf("payout %.2f for user %s exceeds cycle cap %.2f", calc.FinalPayout, user.UserID, ceiling))
			continue
		}
		if calc.FinalPayout <= 0 {
			continue
		}

		batch.Payouts = append(batch.Payouts, calc)
		batch.UserCount++
		batch.TotalPayouts += calc.FinalPayout
		ps.updateSummary(calc, batch.Timestamp)
	}

	if batch.UserCount > 0 {
		batch.AveragePayout = batch.TotalPayouts / float64(batch.UserCount)
	}
	batch.Completed = true
	return batch
}

// calculatePayout builds one user's reward: base plus performance and
// network bonuses, scaled by the emergency budget factor.
func (ps *PayoutService) calculatePayout(user models.UserEconomicProfile, metrics models.NetworkMetrics, decay models.DecayMetrics, budgetFactor float64) models.PayoutCalculation {
	base := ps.source.BaseReward(user)

	perf := 0.0
	if user.NodeUptime >= uptimeBonusThreshold {
		perf += base * uptimeBonusRate
	}
	if user.ReputationScore >= reputationBonusThreshold {
		perf += base * reputationBonusRate
	}
	if float64(user.TotalStaked)/stakeBonusUnit >= 1 {
		perf += base * stakeBonusRate
	}

	network := base * ps.cfg.Engine.ContributionBonus
	if metrics.NetworkHealth >= healthBonusThreshold {
		network += base * healthBonusRate
	}
	if decay.AverageScore >= decayBonusThreshold {
		network += base * decayBonusRate
	}

	return models.PayoutCalculation{
		UserID:           user.UserID,
		BaseReward:       base,
		PerformanceBonus: perf,
		NetworkBonus:     network,
		FinalPayout:      (base + perf + network) * budgetFactor,
	}
}

func (ps *PayoutService) updateSummary(calc models.PayoutCalculation, at time.Time) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	summary, ok := ps.summaries[calc.UserID]
	if !ok {
		summary = &models.UserPayoutSummary{UserID: calc.UserID}
		ps.summaries[calc.UserID] = summary
	}
	summary.TotalEarned += calc.FinalPayout
	summary.PayoutCount++
	summary.AveragePayout = summary.TotalEarned / float64(summary.PayoutCount)
	summary.LastPayout = at
}

// recordBatch appends the batch to the bounded in-memory ring, persists it
// and notifies subscribers.
func (ps *PayoutService) recordBatch(batch *models.PayoutBatch) {
	ps.mu.Lock()
	ps.history = append(ps.history, batch)
	limit := ps.cfg.Engine.BatchHistoryLimit
	if limit > 0 && len(ps.history) > limit {
		ps.history = ps.history[len(ps.history)-limit:]
	}
	ps.mu.Unlock()

	if ps.mongo != nil {
		ps.mongo.InsertPayoutBatch(batch)
	}
	if ps.bus != nil {
		ps.bus.Publish(Event{Type: EventBatchCompleted, Data: *batch})
	}
}

// BatchHistory returns the most recent batches, newest last.
func (ps *PayoutService) BatchHistory(limit int) []*models.PayoutBatch {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if limit <= 0 || limit > len(ps.history) {
		limit = len(ps.history)
	}
	out := make([]*models.PayoutBatch, limit)
	copy(out, ps.history[len(ps.history)-limit:])
	return out
}

// UserSummary returns a user's running payout aggregate.
func (ps *PayoutService) UserSummary(userID string) (models.UserPayoutSummary, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	summary, ok := ps.summaries[userID]
	if !ok {
		return models.UserPayoutSummary{}, fmt.Errorf("no payouts recorded for user %s", userID)
	}
	return *summary, nil
}

// LastCycle returns the stats of the most recent completed cycle, or nil.
func (ps *PayoutService) LastCycle() *models.CycleStats {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.lastCycle
}
