package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"onusone/config"
	"onusone/models"
	"onusone/utils"
)

// burnThresholds is the decay-score ladder. Buckets are evaluated top-down;
// the first match wins. A score above 75 never burns.
var burnThresholds = []struct {
	MaxScore   int
	Percentage int
}{
	{0, 100},
	{25, 50},
	{50, 25},
	{75, 10},
}

// BurnService scores tracked content and executes stake burns through the
// external ledger. Sweeps are serialized; at most one runs at a time.
type BurnService struct {
	cfg    *config.Config
	store  ContentStore
	ledger LedgerExecutor
	bus    *EventBus
	mongo  *MongoService

	sweepMu sync.Mutex

	mu          sync.RWMutex
	decay       models.DecayMetrics
	lastScores  map[string]int
	lastSweepAt time.Time
	lastResult  *models.SweepResult

	stopChan  chan struct{}
	isRunning bool
}

func NewBurnService(cfg *config.Config, store ContentStore, ledger LedgerExecutor, bus *EventBus, mongo *MongoService) *BurnService {
	return &BurnService{
		cfg:    cfg,
		store:  store,
		ledger: ledger,
		bus:    bus,
		mongo:  mongo,
		decay: models.DecayMetrics{
			AverageScore:        100,
			AverageAcceleration: 1.0,
			QualityCorrelation:  1.0,
		},
		lastScores: make(map[string]int),
	}
}

// Start begins the periodic burn sweep.
func (bs *BurnService) Start() {
	if bs.isRunning {
		return
	}
	bs.isRunning = true
	bs.stopChan = make(chan struct{})

	go bs.sweepLoop()
	log.Printf("✓ Burn sweep started (interval: %v)", bs.cfg.SweepIntervalDuration())
}

// Stop halts the periodic sweep.
func (bs *BurnService) Stop() {
	if !bs.isRunning {
		return
	}
	bs.isRunning = false
	close(bs.stopChan)
	log.Println("Burn sweep stopped")
}

func (bs *BurnService) sweepLoop() {
	ticker := time.NewTicker(bs.cfg.SweepIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result := bs.Sweep(time.Now())
			log.Printf("Burn sweep: %d scanned, %d burned, %d units removed (avg score %.1f)",
				result.ItemsScanned, result.ItemsBurned, result.TotalBurned, result.AverageScore)
		case <-bs.stopChan:
			return
		}
	}
}

func burnPercentageFor(score int) int {
	for _, t := range burnThresholds {
		if score <= t.MaxScore {
			return t.Percentage
		}
	}
	return 0
}

// Evaluate decides whether a content item should burn right now. It never
// mutates the item.
func (bs *BurnService) Evaluate(c *models.ContentItem, now time.Time) models.BurnDecision {
	score := utils.DecayScore(c, now)

	pct := burnPercentageFor(score)
	if pct == 0 {
		return models.BurnDecision{}
	}

	// Idempotent per bucket: an item that already burned at this percentage
	// or deeper does not burn again until it crosses a deeper threshold.
	if c.MaxBurnPercentage() >= pct {
		return models.BurnDecision{}
	}

	current := c.CurrentStake()
	if current <= 0 {
		return models.BurnDecision{}
	}

	amount := c.StakeTotal * int64(pct) / 100
	if amount > current {
		amount = current
	}
	if amount < bs.cfg.Engine.MinBurnAmount {
		return models.BurnDecision{}
	}

	return models.BurnDecision{
		ShouldBurn: true,
		Amount:     amount,
		Percentage: pct,
	}
}

// Sweep scores every tracked item, executes due burns and refreshes the
// rolling decay statistics.
func (bs *BurnService) Sweep(now time.Time) *models.SweepResult {
	bs.sweepMu.Lock()
	defer bs.sweepMu.Unlock()

	items := bs.store.List()
	result := &models.SweepResult{Timestamp: now}

	bs.mu.RLock()
	prevScores := bs.lastScores
	prevSweep := bs.lastSweepAt
	bs.mu.RUnlock()

	hours := 0.0
	if !prevSweep.IsZero() {
		hours = now.Sub(prevSweep).Hours()
	}

	var scoreSum float64
	scores := make([]float64, 0, len(items))
	engagements := make([]float64, 0, len(items))
	var accelerations []float64
	newScores := make(map[string]int, len(items))

	for i := range items {
		item := items[i]
		score := utils.DecayScore(&item, now)

		result.ItemsScanned++
		scoreSum += float64(score)
		scores = append(scores, float64(score))
		engagements = append(engagements, float64(item.EngagementCount))
		newScores[item.ID] = score

		// Acceleration compares the observed score drop since the previous
		// sweep against the baseline time-decay rate.
		if prev, ok := prevScores[item.ID]; ok && hours > 0 {
			expected := utils.DecayPerHour * hours
			observed := float64(prev - score)
			if observed < 0 {
				observed = 0
			}
			accelerations = append(accelerations, observed/expected)
		}

		decision := bs.Evaluate(&item, now)
		if !decision.ShouldBurn {
			continue
		}

		burned, err := bs.executeBurn(item.ID, score, decision, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.ID, err))
			continue
		}
		result.ItemsBurned++
		result.TotalBurned += burned
	}

	if result.ItemsScanned > 0 {
		result.AverageScore = scoreSum / float64(result.ItemsScanned)
	}

	bs.updateDecayMetrics(result, newScores, engagements, scores, accelerations, now)
	return result
}

func (bs *BurnService) updateDecayMetrics(result *models.SweepResult, newScores map[string]int, engagements, scores, accelerations []float64, now time.Time) {
	correlation := 1.0
	if len(scores) >= 2 {
		if r, err := stats.Pearson(engagements, scores); err == nil && !math.IsNaN(r) && !math.IsInf(r, 0) {
			correlation = r
		}
	}

	acceleration := 1.0
	if len(accelerations) > 0 {
		var sum float64
		for _, a := range accelerations {
			sum += a
		}
		acceleration = sum / float64(len(accelerations))
	}

	bs.mu.Lock()
	bs.decay = models.DecayMetrics{
		AverageScore:        result.AverageScore,
		AverageAcceleration: acceleration,
		QualityCorrelation:  correlation,
		LastSweep:           now,
	}
	bs.lastScores = newScores
	bs.lastSweepAt = now
	bs.lastResult = result
	bs.mu.Unlock()
}

// executeBurn delegates the burn to the ledger, then records it on the item.
// The item is only mutated after the ledger confirms.
func (bs *BurnService) executeBurn(contentID string, score int, decision models.BurnDecision, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := bs.ledger.BurnTokens(ctx, decision.Amount)
	if err != nil {
		return 0, err
	}
	if !res.Success {
		return 0, fmt.Errorf("ledger rejected burn: %s", res.Error)
	}

	var record models.BurnRecord
	_, err = bs.store.Update(contentID, func(c *models.ContentItem) error {
		if c.MaxBurnPercentage() >= decision.Percentage {
			return fmt.Errorf("burn at %d%% already recorded", decision.Percentage)
		}
		amount := decision.Amount
		if current := c.CurrentStake(); amount > current {
			amount = current
		}
		c.BurnedTotal += amount
		record = models.BurnRecord{
			Timestamp:        now,
			DecayScoreAtBurn: score,
			BurnedAmount:     amount,
			BurnPercentage:   decision.Percentage,
			RemainingStake:   c.CurrentStake(),
			ExternalTxRef:    res.TxRef,
		}
		c.BurnHistory = append(c.BurnHistory, record)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if bs.mongo != nil {
		bs.mongo.InsertBurnRecord(contentID, record)
	}
	if bs.bus != nil {
		bs.bus.Publish(Event{Type: EventContentDecayed, Data: map[string]interface{}{
			"content_id":      contentID,
			"decay_score":     score,
			"burned_amount":   record.BurnedAmount,
			"burn_percentage": record.BurnPercentage,
			"remaining_stake": record.RemainingStake,
		}})
	}

	log.Printf("Burned %d units (%d%%) from content %s at score %d",
		record.BurnedAmount, record.BurnPercentage, contentID, score)
	return record.BurnedAmount, nil
}

// ApplyQualityPenalty adds penalty points to every non-preserved item.
// Returns the number of items affected.
func (bs *BurnService) ApplyQualityPenalty(penalty int) int {
	affected := 0
	for _, item := range bs.store.List() {
		if item.Preserved {
			continue
		}
		_, err := bs.store.Update(item.ID, func(c *models.ContentItem) error {
			c.QualityPenalty += penalty
			return nil
		})
		if err == nil {
			affected++
		}
	}
	return affected
}

// DecayMetrics returns the rolling decay statistics from the latest sweep.
func (bs *BurnService) DecayMetrics() models.DecayMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.decay
}

// LastSweepResult returns the most recent sweep summary, or nil if no sweep
// has run yet.
func (bs *BurnService) LastSweepResult() *models.SweepResult {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastResult
}
