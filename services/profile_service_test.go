package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"onusone/models"
)

func TestProfileRegisterAndGet(t *testing.T) {
	ps := NewProfileService(testConfig(), nil)

	ps.Register(models.UserEconomicProfile{UserID: "u1", NodeUptime: 90, TotalStaked: 100})

	profile, err := ps.Get("u1")
	require.NoError(t, err)
	require.Equal(t, int64(100), profile.TotalStaked)
	require.False(t, profile.CreatedAt.IsZero())

	_, err = ps.Get("missing")
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileStakeUnstake(t *testing.T) {
	ps := NewProfileService(testConfig(), nil)
	ps.Register(models.UserEconomicProfile{UserID: "u1", TotalStaked: 100})

	profile, err := ps.Stake("u1", 50)
	require.NoError(t, err)
	require.Equal(t, int64(150), profile.TotalStaked)

	profile, err = ps.Unstake("u1", 150)
	require.NoError(t, err)
	require.Equal(t, int64(0), profile.TotalStaked)

	_, err = ps.Unstake("u1", 1)
	require.ErrorIs(t, err, ErrInsufficientStake)

	_, err = ps.Stake("u1", -5)
	require.Error(t, err)
}

func TestProfileBaseReward(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.BaseRewardRate = 0.01
	ps := NewProfileService(cfg, nil)

	reward := ps.BaseReward(models.UserEconomicProfile{UserID: "u1", TotalStaked: 1200})
	require.InDelta(t, 12.0, reward, 0.001)
}

func TestProfileCandidatesDeterministicOrder(t *testing.T) {
	ps := NewProfileService(testConfig(), nil)
	ps.Register(models.UserEconomicProfile{UserID: "charlie"})
	ps.Register(models.UserEconomicProfile{UserID: "alice"})
	ps.Register(models.UserEconomicProfile{UserID: "bob"})

	candidates := ps.Candidates()
	require.Len(t, candidates, 3)
	require.Equal(t, "alice", candidates[0].UserID)
	require.Equal(t, "bob", candidates[1].UserID)
	require.Equal(t, "charlie", candidates[2].UserID)
}

func TestProfileSetPerformance(t *testing.T) {
	ps := NewProfileService(testConfig(), nil)
	ps.Register(models.UserEconomicProfile{UserID: "u1", NodeUptime: 50, ReputationScore: 50})

	profile, err := ps.SetPerformance("u1", 96, -1)
	require.NoError(t, err)
	require.InDelta(t, 96.0, profile.NodeUptime, 0.001)
	require.InDelta(t, 50.0, profile.ReputationScore, 0.001)
}
