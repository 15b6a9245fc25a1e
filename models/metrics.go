package models

import "time"

// NetworkMetrics represents the live aggregate network state. It is only
// mutated through explicit updates and read as a snapshot by every cycle.
type NetworkMetrics struct {
	TotalNodes         int     `json:"total_nodes" bson:"total_nodes"`
	ActiveNodes        int     `json:"active_nodes" bson:"active_nodes"`
	TotalStaked        int64   `json:"total_staked" bson:"total_staked"`
	NetworkHealth      float64 `json:"network_health" bson:"network_health"` // 0-100
	MessageVolume      int64   `json:"message_volume" bson:"message_volume"`
	MaxNetworkCapacity int64   `json:"max_network_capacity" bson:"max_network_capacity"`
	AverageLatency     int64   `json:"average_latency_ms" bson:"average_latency_ms"`
	UptimePercentage   float64 `json:"uptime_percentage" bson:"uptime_percentage"`

	LastUpdated time.Time `json:"last_updated" bson:"last_updated"`
}

// CapacityRatio returns messageVolume / maxNetworkCapacity, or 0 when
// capacity is unknown.
func (m *NetworkMetrics) CapacityRatio() float64 {
	if m.MaxNetworkCapacity <= 0 {
		return 0
	}
	return float64(m.MessageVolume) / float64(m.MaxNetworkCapacity)
}

// NetworkMetricsUpdate is a partial update; nil fields leave the current
// value untouched.
type NetworkMetricsUpdate struct {
	TotalNodes         *int     `json:"total_nodes,omitempty"`
	ActiveNodes        *int     `json:"active_nodes,omitempty"`
	TotalStaked        *int64   `json:"total_staked,omitempty"`
	NetworkHealth      *float64 `json:"network_health,omitempty"`
	MessageVolume      *int64   `json:"message_volume,omitempty"`
	MaxNetworkCapacity *int64   `json:"max_network_capacity,omitempty"`
	AverageLatency     *int64   `json:"average_latency_ms,omitempty"`
	UptimePercentage   *float64 `json:"uptime_percentage,omitempty"`
}

// DecayMetrics carries rolling decay statistics produced by burn sweeps.
type DecayMetrics struct {
	AverageScore        float64   `json:"average_score"`
	AverageAcceleration float64   `json:"average_acceleration"`
	QualityCorrelation  float64   `json:"quality_correlation"`
	LastSweep           time.Time `json:"last_sweep"`
}
