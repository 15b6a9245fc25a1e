package models

import "time"

// UserEconomicProfile is the per-user economic record consulted for payout
// eligibility and bonuses.
type UserEconomicProfile struct {
	UserID          string    `json:"user_id" bson:"user_id"`
	NodeUptime      float64   `json:"node_uptime" bson:"node_uptime"`           // 0-100 percent
	ReputationScore float64   `json:"reputation_score" bson:"reputation_score"` // 0-100+
	TotalStaked     int64     `json:"total_staked" bson:"total_staked"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}
