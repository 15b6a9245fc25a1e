package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onusone/models"
)

func contentAged(hours float64, stake int64, engagement int) *models.ContentItem {
	return &models.ContentItem{
		ID:              "content-1",
		CreatedAt:       time.Now().Add(-time.Duration(hours * float64(time.Hour))),
		EngagementCount: engagement,
		StakeTotal:      stake,
	}
}

func TestDecayScoreFreshContent(t *testing.T) {
	c := contentAged(0, 100, 0)
	require.Equal(t, 100, DecayScore(c, time.Now()))
}

func TestDecayScoreAgedContent(t *testing.T) {
	now := time.Now()

	// 100 - 8*10 + log10(101)*10 = 40.04
	c := contentAged(10, 100, 0)
	require.Equal(t, 40, DecayScore(c, now))

	// 100 - 8*15 + log10(101)*10 = 0.04 -> floors to zero
	c = contentAged(15, 100, 0)
	require.Equal(t, 0, DecayScore(c, now))
}

func TestDecayScoreBounds(t *testing.T) {
	now := time.Now()
	for hours := 0.0; hours <= 72; hours += 1.5 {
		c := contentAged(hours, 100, 5)
		score := DecayScore(c, now)
		require.GreaterOrEqual(t, score, 0, "hours=%v", hours)
		require.LessOrEqual(t, score, 100, "hours=%v", hours)
	}
}

func TestDecayScoreFutureCreatedAt(t *testing.T) {
	// Clock skew: createdAt in the future clamps elapsed time to zero.
	c := &models.ContentItem{
		CreatedAt:  time.Now().Add(2 * time.Hour),
		StakeTotal: 100,
	}
	require.Equal(t, 100, DecayScore(c, time.Now()))
}

func TestDecayScoreMonotonicInTime(t *testing.T) {
	now := time.Now()
	prev := 101
	for hours := 0.0; hours <= 20; hours++ {
		score := DecayScore(contentAged(hours, 100, 3), now)
		require.LessOrEqual(t, score, prev, "score increased at hours=%v", hours)
		prev = score
	}
}

func TestDecayScoreMonotonicInEngagement(t *testing.T) {
	now := time.Now()
	prev := -1
	for engagement := 0; engagement <= 30; engagement += 5 {
		score := DecayScore(contentAged(12, 100, engagement), now)
		require.GreaterOrEqual(t, score, prev, "score decreased at engagement=%d", engagement)
		prev = score
	}
}

func TestDecayScoreMonotonicInStake(t *testing.T) {
	now := time.Now()
	prev := -1
	for _, stake := range []int64{0, 10, 100, 1000, 10000} {
		score := DecayScore(contentAged(12, stake, 0), now)
		require.GreaterOrEqual(t, score, prev, "score decreased at stake=%d", stake)
		prev = score
	}
}

func TestDecayScoreActiveBoost(t *testing.T) {
	now := time.Now()

	plain := contentAged(10, 100, 0)
	require.Equal(t, 40, DecayScore(plain, now))

	boosted := contentAged(10, 100, 0)
	until := now.Add(time.Hour)
	boosted.BoostUntil = &until
	require.Equal(t, 60, DecayScore(boosted, now))

	expired := contentAged(10, 100, 0)
	past := now.Add(-time.Minute)
	expired.BoostUntil = &past
	require.Equal(t, 40, DecayScore(expired, now))
}

func TestDecayScoreQualityPenalty(t *testing.T) {
	now := time.Now()

	c := contentAged(10, 100, 0)
	require.Equal(t, 40, DecayScore(c, now))

	c.QualityPenalty = 20
	require.Equal(t, 20, DecayScore(c, now))
}
