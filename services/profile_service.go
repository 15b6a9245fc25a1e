package services

import (
	"errors"
	"sort"
	"sync"
	"time"

	"onusone/config"
	"onusone/models"
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInsufficientStake = errors.New("insufficient staked balance")
)

// EligibleUserSource supplies the candidate set for a payout cycle. The
// payout service applies eligibility filtering on top of the candidates.
type EligibleUserSource interface {
	Candidates() []models.UserEconomicProfile
	BaseReward(p models.UserEconomicProfile) float64
}

// ProfileService is the default EligibleUserSource, backed by profiles
// registered through the API.
type ProfileService struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserEconomicProfile
	cfg      *config.Config
	mongo    *MongoService
}

func NewProfileService(cfg *config.Config, mongo *MongoService) *ProfileService {
	return &ProfileService{
		profiles: make(map[string]*models.UserEconomicProfile),
		cfg:      cfg,
		mongo:    mongo,
	}
}

// Register creates or replaces a profile.
func (ps *ProfileService) Register(p models.UserEconomicProfile) models.UserEconomicProfile {
	ps.mu.Lock()
	if existing, ok := ps.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	copied := p
	ps.profiles[p.UserID] = &copied
	ps.mu.Unlock()

	if ps.mongo != nil {
		ps.mongo.UpsertProfile(&p)
	}
	return p
}

func (ps *ProfileService) Get(userID string) (models.UserEconomicProfile, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	p, ok := ps.profiles[userID]
	if !ok {
		return models.UserEconomicProfile{}, ErrProfileNotFound
	}
	return *p, nil
}

// Stake adds amount (base units) to the user's staked balance.
func (ps *ProfileService) Stake(userID string, amount int64) (models.UserEconomicProfile, error) {
	if amount <= 0 {
		return models.UserEconomicProfile{}, errors.New("stake amount must be positive")
	}
	return ps.adjust(userID, amount)
}

// Unstake removes amount from the user's staked balance.
func (ps *ProfileService) Unstake(userID string, amount int64) (models.UserEconomicProfile, error) {
	if amount <= 0 {
		return models.UserEconomicProfile{}, errors.New("unstake amount must be positive")
	}
	return ps.adjust(userID, -amount)
}

func (ps *ProfileService) adjust(userID string, delta int64) (models.UserEconomicProfile, error) {
	ps.mu.Lock()
	p, ok := ps.profiles[userID]
	if !ok {
		ps.mu.Unlock()
		return models.UserEconomicProfile{}, ErrProfileNotFound
	}
	if p.TotalStaked+delta < 0 {
		ps.mu.Unlock()
		return models.UserEconomicProfile{}, ErrInsufficientStake
	}
	p.TotalStaked += delta
	snapshot := *p
	ps.mu.Unlock()

	if ps.mongo != nil {
		ps.mongo.UpsertProfile(&snapshot)
	}
	return snapshot, nil
}

// SetPerformance updates the node-level metrics integrations report for a
// user. Negative values leave the existing value untouched.
func (ps *ProfileService) SetPerformance(userID string, uptime, reputation float64) (models.UserEconomicProfile, error) {
	ps.mu.Lock()
	p, ok := ps.profiles[userID]
	if !ok {
		ps.mu.Unlock()
		return models.UserEconomicProfile{}, ErrProfileNotFound
	}
	if uptime >= 0 {
		p.NodeUptime = uptime
	}
	if reputation >= 0 {
		p.ReputationScore = reputation
	}
	snapshot := *p
	ps.mu.Unlock()

	if ps.mongo != nil {
		ps.mongo.UpsertProfile(&snapshot)
	}
	return snapshot, nil
}

// Candidates returns all registered profiles by value, ordered by user id so
// payout batching is deterministic.
func (ps *ProfileService) Candidates() []models.UserEconomicProfile {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	out := make([]models.UserEconomicProfile, 0, len(ps.profiles))
	for _, p := range ps.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// BaseReward computes the per-cycle base reward for a profile: staked
// balance times the configured reward rate.
func (ps *ProfileService) BaseReward(p models.UserEconomicProfile) float64 {
	return float64(p.TotalStaked) * ps.cfg.Engine.BaseRewardRate
}

// Count returns the number of registered profiles.
func (ps *ProfileService) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.profiles)
}
