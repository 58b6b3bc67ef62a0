package consensus

import (
	jsoniter "github.com/json-iterator/go"
)

// NewSharedMetric returns a metric item exposing the shared state's current
// view. Snapshots are taken lazily, when the metric is rendered.
func NewSharedMetric(shared *SharedState) *SharedMetric {
	return &SharedMetric{shared: shared}
}

type SharedMetric struct {
	shared *SharedState
}

type sharedMetricSnapshot struct {
	Round         uint64 `json:"current_round"`
	Height        uint32 `json:"block_height"`
	CommitteeSize int    `json:"committee_size"`
	BatchRounds   int    `json:"batch_rounds"`

	TotalStake            uint64 `json:"total_stake"`
	QuorumThreshold       uint64 `json:"quorum_threshold"`
	AvailabilityThreshold uint64 `json:"availability_threshold"`
	StakeOverflow         bool   `json:"stake_overflow"`
}

func (sm *SharedMetric) JSONString() string {
	snap := sharedMetricSnapshot{
		Round:         sm.shared.Round(),
		Height:        sm.shared.Height(),
		CommitteeSize: sm.shared.CommitteeSize(),
		BatchRounds:   sm.shared.BatchRounds(),
	}

	total, err := sm.shared.TotalStake()
	if err != nil {
		snap.StakeOverflow = true
	} else {
		snap.TotalStake = total
		snap.QuorumThreshold, _ = sm.shared.QuorumThreshold()
		snap.AvailabilityThreshold, _ = sm.shared.AvailabilityThreshold()
	}

	s, _ := jsoniter.MarshalToString(snap)
	return s
}
