package models

import "time"

// SubsystemStatus is the status of a single probed subsystem.
type SubsystemStatus string

const (
	StatusHealthy   SubsystemStatus = "healthy"
	StatusDegraded  SubsystemStatus = "degraded"
	StatusUnhealthy SubsystemStatus = "unhealthy"
)

// HealthLevel is the composite reduction over all subsystems.
type HealthLevel string

const (
	HealthExcellent HealthLevel = "excellent"
	HealthGood      HealthLevel = "good"
	HealthFair      HealthLevel = "fair"
	HealthPoor      HealthLevel = "poor"
	HealthCritical  HealthLevel = "critical"
)

// SystemHealthState is the composite health snapshot produced by each check.
type SystemHealthState struct {
	Economics SubsystemStatus `json:"economics"`
	Decay     SubsystemStatus `json:"decay"`
	Payout    SubsystemStatus `json:"payout"`

	Overall   HealthLevel       `json:"overall"`
	CheckedAt time.Time         `json:"checked_at"`
	Details   map[string]string `json:"details,omitempty"`
}

// Reduce computes the composite level from the three subsystem statuses.
func (s *SystemHealthState) Reduce() HealthLevel {
	statuses := []SubsystemStatus{s.Economics, s.Decay, s.Payout}

	unhealthy, degraded, healthy := 0, 0, 0
	for _, st := range statuses {
		switch st {
		case StatusUnhealthy:
			unhealthy++
		case StatusDegraded:
			degraded++
		case StatusHealthy:
			healthy++
		}
	}

	switch {
	case unhealthy > 0:
		return HealthCritical
	case degraded >= 2:
		return HealthPoor
	case degraded == 1:
		return HealthFair
	case healthy == len(statuses):
		return HealthExcellent
	default:
		return HealthGood
	}
}
