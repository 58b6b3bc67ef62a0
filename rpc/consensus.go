package rpc

import (
	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"

	"dagbft_demo/types"
)

type ResultStatus struct {
	NodeStatus    string `json:"node_status"`
	Round         uint64 `json:"current_round"`
	Height        uint32 `json:"block_height"`
	CommitteeSize int    `json:"committee_size"`
	BatchRounds   int    `json:"batch_rounds"`
}

// Status reports the node's lifecycle state and the current consensus
// counters.
func Status(ctx *rpctypes.Context) (*ResultStatus, error) {
	return &ResultStatus{
		NodeStatus:    env.Status(),
		Round:         env.Shared.Round(),
		Height:        env.Shared.Height(),
		CommitteeSize: env.Shared.CommitteeSize(),
		BatchRounds:   env.Shared.BatchRounds(),
	}, nil
}

type ResultCommitteeMember struct {
	Address string `json:"address"`
	Stake   uint64 `json:"stake"`
}

type ResultCommittee struct {
	Validators []ResultCommitteeMember `json:"validators"`
	TotalStake uint64                  `json:"total_stake"`
}

// Committee lists the current validators with their stakes.
func Committee(ctx *rpctypes.Context) (*ResultCommittee, error) {
	total, err := env.Shared.TotalStake()
	if err != nil {
		return nil, err
	}

	validators := make([]ResultCommitteeMember, 0, env.Shared.CommitteeSize())
	env.Shared.IterateCommittee(func(addr types.Address, stake uint64) bool {
		validators = append(validators, ResultCommitteeMember{
			Address: addr.String(),
			Stake:   stake,
		})
		return false
	})

	return &ResultCommittee{
		Validators: validators,
		TotalStake: total,
	}, nil
}

type ResultThresholds struct {
	TotalStake            uint64 `json:"total_stake"`
	QuorumThreshold       uint64 `json:"quorum_threshold"`
	AvailabilityThreshold uint64 `json:"availability_threshold"`
}

// Thresholds reports the BFT stake thresholds for the current committee.
func Thresholds(ctx *rpctypes.Context) (*ResultThresholds, error) {
	total, err := env.Shared.TotalStake()
	if err != nil {
		return nil, err
	}
	quorum, err := env.Shared.QuorumThreshold()
	if err != nil {
		return nil, err
	}
	availability, err := env.Shared.AvailabilityThreshold()
	if err != nil {
		return nil, err
	}
	return &ResultThresholds{
		TotalStake:            total,
		QuorumThreshold:       quorum,
		AvailabilityThreshold: availability,
	}, nil
}

type ResultSealedBatches struct {
	Round   uint64                       `json:"round"`
	Batches map[string]types.SealedBatch `json:"batches"`
}

// SealedBatches returns the sealed batches recorded for a round.
func SealedBatches(ctx *rpctypes.Context, round uint64) (*ResultSealedBatches, error) {
	result := &ResultSealedBatches{Round: round}

	batches := env.Shared.SealedBatches(round)
	if batches != nil {
		result.Batches = make(map[string]types.SealedBatch, len(batches))
		for addr, sealed := range batches {
			result.Batches[addr.String()] = sealed
		}
	}
	return result, nil
}

type ResultCertificates struct {
	Round        uint64                   `json:"round"`
	Certificates []types.BatchCertificate `json:"certificates"`
}

// PreviousCertificates returns the certificates of the round preceding the
// given one. Empty for the genesis round.
func PreviousCertificates(ctx *rpctypes.Context, round uint64) (*ResultCertificates, error) {
	return &ResultCertificates{
		Round:        round,
		Certificates: env.Shared.PreviousCertificates(round),
	}, nil
}
