package utils

import (
	"math"
	"time"

	"onusone/models"
)

// Decay formula weights. Content loses 8 points per hour and earns them
// back through engagement, stake weight and an active boost window.
const (
	DecayPerHour     = 8.0
	EngagementWeight = 2.0
	StakeBoostWeight = 10.0
	ActiveBoost      = 20.0
)

// DecayScore computes the content's relevance score (0-100) at the given
// instant. Pure and total: negative elapsed time clamps to zero, the result
// clamps to [0,100].
func DecayScore(c *models.ContentItem, now time.Time) int {
	hours := now.Sub(c.CreatedAt).Hours()
	if hours < 0 {
		hours = 0
	}

	stakeBoost := math.Log10(1+float64(c.StakeTotal)) * StakeBoostWeight

	boost := 0.0
	if c.BoostUntil != nil && c.BoostUntil.After(now) {
		boost = ActiveBoost
	}

	raw := 100 - DecayPerHour*hours + EngagementWeight*float64(c.EngagementCount) + stakeBoost + boost

	// Emergency mode raises QualityPenalty to accelerate decay.
	raw -= float64(c.QualityPenalty)

	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	return int(math.Round(raw))
}
