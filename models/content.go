package models

import "time"

// ContentItem is a stake-backed piece of content tracked by the decay engine.
type ContentItem struct {
	// Identity
	ID     string `json:"id" bson:"id"`
	Author string `json:"author" bson:"author"`
	Board  string `json:"board" bson:"board"`

	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	EngagementCount int       `json:"engagement_count" bson:"engagement_count"`

	// Stake (base token units)
	StakeTotal  int64 `json:"stake_total" bson:"stake_total"`
	BurnedTotal int64 `json:"burned_total" bson:"burned_total"`

	// BurnHistory is append-only; cumulative burn percentage never decreases.
	BurnHistory []BurnRecord `json:"burn_history" bson:"burn_history"`

	// BoostUntil, when set and in the future, grants a flat decay boost.
	BoostUntil *time.Time `json:"boost_until,omitempty" bson:"boost_until,omitempty"`

	// QualityPenalty is subtracted from the raw decay score. Emergency mode
	// raises it network-wide to accelerate decay.
	QualityPenalty int `json:"quality_penalty" bson:"quality_penalty"`

	// Preserved content is exempt from emergency penalties.
	Preserved bool `json:"preserved" bson:"preserved"`
}

// CurrentStake returns the stake remaining after all burns.
func (c *ContentItem) CurrentStake() int64 {
	return c.StakeTotal - c.BurnedTotal
}

// MaxBurnPercentage returns the highest burn bucket already recorded,
// or 0 if the item has never burned.
func (c *ContentItem) MaxBurnPercentage() int {
	max := 0
	for _, r := range c.BurnHistory {
		if r.BurnPercentage > max {
			max = r.BurnPercentage
		}
	}
	return max
}

// BurnRecord captures a single executed burn. Immutable once appended.
type BurnRecord struct {
	Timestamp        time.Time `json:"timestamp" bson:"timestamp"`
	DecayScoreAtBurn int       `json:"decay_score_at_burn" bson:"decay_score_at_burn"`
	BurnedAmount     int64     `json:"burned_amount" bson:"burned_amount"`
	BurnPercentage   int       `json:"burn_percentage" bson:"burn_percentage"` // 10, 25, 50 or 100
	RemainingStake   int64     `json:"remaining_stake" bson:"remaining_stake"`
	ExternalTxRef    string    `json:"external_tx_ref,omitempty" bson:"external_tx_ref,omitempty"`
}

// BurnDecision is the outcome of evaluating one content item against the
// burn thresholds.
type BurnDecision struct {
	ShouldBurn bool  `json:"should_burn"`
	Amount     int64 `json:"amount"`
	Percentage int   `json:"percentage"`
}

// SweepResult aggregates one pass of the burn sweep.
type SweepResult struct {
	Timestamp    time.Time `json:"timestamp"`
	ItemsScanned int       `json:"items_scanned"`
	ItemsBurned  int       `json:"items_burned"`
	TotalBurned  int64     `json:"total_burned"`
	AverageScore float64   `json:"average_score"`
	Errors       []string  `json:"errors,omitempty"`
}
