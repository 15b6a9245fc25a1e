package models

import "time"

// PayoutCalculation is a single user's reward for one cycle. FinalPayout is
// built additively from the three parts and never decreases while bonuses
// are applied.
type PayoutCalculation struct {
	UserID           string  `json:"user_id" bson:"user_id"`
	BaseReward       float64 `json:"base_reward" bson:"base_reward"`
	PerformanceBonus float64 `json:"performance_bonus" bson:"performance_bonus"`
	NetworkBonus     float64 `json:"network_bonus" bson:"network_bonus"`
	FinalPayout      float64 `json:"final_payout" bson:"final_payout"`
}

// PayoutBatch groups up to BatchSize user payouts processed together.
type PayoutBatch struct {
	BatchID               string              `json:"batch_id" bson:"batch_id"`
	Timestamp             time.Time           `json:"timestamp" bson:"timestamp"`
	UserCount             int                 `json:"user_count" bson:"user_count"`
	TotalPayouts          float64             `json:"total_payouts" bson:"total_payouts"`
	AveragePayout         float64             `json:"average_payout" bson:"average_payout"`
	NetworkHealthSnapshot float64             `json:"network_health_snapshot" bson:"network_health_snapshot"`
	EmergencyMode         bool                `json:"emergency_mode" bson:"emergency_mode"`
	Completed             bool                `json:"completed" bson:"completed"`
	Payouts               []PayoutCalculation `json:"payouts" bson:"payouts"`
	Errors                []string            `json:"errors,omitempty" bson:"errors,omitempty"`
}

// UserPayoutSummary is the running per-user aggregate across cycles.
type UserPayoutSummary struct {
	UserID        string    `json:"user_id" bson:"user_id"`
	TotalEarned   float64   `json:"total_earned" bson:"total_earned"`
	PayoutCount   int       `json:"payout_count" bson:"payout_count"`
	AveragePayout float64   `json:"average_payout" bson:"average_payout"`
	LastPayout    time.Time `json:"last_payout" bson:"last_payout"`
}

// CycleStats is the aggregate emitted when a payout cycle completes.
type CycleStats struct {
	Timestamp     time.Time `json:"timestamp"`
	BatchCount    int       `json:"batch_count"`
	UsersPaid     int       `json:"users_paid"`
	UsersRejected int       `json:"users_rejected"`
	TotalPaid     float64   `json:"total_paid"`
	EmergencyMode bool      `json:"emergency_mode"`
	Elapsed       string    `json:"elapsed"`
}
