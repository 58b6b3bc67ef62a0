package consensus

import (
	"math"
	"sync"
	"sync/atomic"

	"dagbft_demo/types"
)

// SharedState is the single synchronization point through which the
// concurrently running protocol tasks (batch proposal, certificate
// aggregation, networking, ordering) observe and advance consensus progress.
//
// It owns four independent regions of state: the committee with stakes, the
// round/height counters, the per-round sealed batches, and the bidirectional
// peer/validator mapping. The counters are plain atomics; each of the other
// regions is guarded by its own RWMutex, and no operation ever holds more
// than one of those locks at a time.
//
// A SharedState is constructed once per node process and passed by pointer
// to every collaborator that needs it.
type SharedState struct {
	// round and height advance independently and are read lock-free.
	round  uint64
	height uint32

	committeeMtx sync.RWMutex
	committee    map[types.Address]uint64

	batchMtx      sync.RWMutex
	sealedBatches map[uint64]map[types.Address]types.SealedBatch

	// Both directions of the peer mapping live under one lock so the pair
	// can never be observed out of sync.
	peerMtx       sync.RWMutex
	peerAddresses map[string]types.Address
	addressPeers  map[types.Address]string
}

// NewSharedState initializes a new SharedState instance starting from the
// given round and height.
func NewSharedState(round uint64, height uint32) *SharedState {
	return &SharedState{
		round:         round,
		height:        height,
		committee:     make(map[types.Address]uint64),
		sealedBatches: make(map[uint64]map[types.Address]types.SealedBatch),
		peerAddresses: make(map[string]types.Address),
		addressPeers:  make(map[types.Address]string),
	}
}

// AddValidator adds a validator to the committee. It returns
// ErrDuplicateValidator if the address is already a committee member.
func (shared *SharedState) AddValidator(addr types.Address, stake uint64) error {
	shared.committeeMtx.Lock()
	defer shared.committeeMtx.Unlock()

	if _, ok := shared.committee[addr]; ok {
		return ErrDuplicateValidator{Address: addr}
	}
	shared.committee[addr] = stake
	return nil
}

// Round returns the current round number.
func (shared *SharedState) Round() uint64 {
	return atomic.LoadUint64(&shared.round)
}

// Height returns the current block height.
func (shared *SharedState) Height() uint32 {
	return atomic.LoadUint32(&shared.height)
}

// IncrementRound increments the round number.
func (shared *SharedState) IncrementRound() {
	atomic.AddUint64(&shared.round, 1)
}

// IncrementHeight increments the block height.
func (shared *SharedState) IncrementHeight() {
	atomic.AddUint32(&shared.height, 1)
}

// StoreSealedBatch records the sealed batch a validator produced for the
// given round. At most one sealed batch is kept per (round, validator) pair;
// recording again for the same pair overwrites the previous entry.
func (shared *SharedState) StoreSealedBatch(round uint64, addr types.Address, sealed types.SealedBatch) {
	shared.batchMtx.Lock()
	defer shared.batchMtx.Unlock()

	batches, ok := shared.sealedBatches[round]
	if !ok {
		batches = make(map[types.Address]types.SealedBatch)
		shared.sealedBatches[round] = batches
	}
	batches[addr] = sealed
}

// SealedBatches returns a point-in-time copy of the sealed batches recorded
// for the given round, or nil if none were ever recorded for it. Mutating
// the shared state afterwards does not affect the returned map.
func (shared *SharedState) SealedBatches(round uint64) map[types.Address]types.SealedBatch {
	shared.batchMtx.RLock()
	defer shared.batchMtx.RUnlock()

	batches, ok := shared.sealedBatches[round]
	if !ok {
		return nil
	}
	snapshot := make(map[types.Address]types.SealedBatch, len(batches))
	for addr, sealed := range batches {
		snapshot[addr] = sealed
	}
	return snapshot
}

// PreviousCertificates returns the batch certificates of the round preceding
// the given one, or nil when there are none. The genesis round does not
// require batch certificates, so round 0 always yields nil. The order of the
// returned certificates is not significant; callers must treat the result as
// a set.
func (shared *SharedState) PreviousCertificates(round uint64) []types.BatchCertificate {
	if round == 0 {
		return nil
	}

	shared.batchMtx.RLock()
	defer shared.batchMtx.RUnlock()

	batches, ok := shared.sealedBatches[round-1]
	if !ok {
		return nil
	}
	certificates := make([]types.BatchCertificate, 0, len(batches))
	for _, sealed := range batches {
		certificates = append(certificates, sealed.Certificate())
	}
	return certificates
}

// BatchRounds returns the number of rounds with recorded sealed batches.
func (shared *SharedState) BatchRounds() int {
	shared.batchMtx.RLock()
	defer shared.batchMtx.RUnlock()
	return len(shared.sealedBatches)
}

// PruneRounds removes every sealed-batch round strictly below the given
// round and returns the removed entries, keyed by round, so the caller can
// archive them. It returns nil when nothing was pruned.
func (shared *SharedState) PruneRounds(before uint64) map[uint64]map[types.Address]types.SealedBatch {
	shared.batchMtx.Lock()
	defer shared.batchMtx.Unlock()

	var pruned map[uint64]map[types.Address]types.SealedBatch
	for round, batches := range shared.sealedBatches {
		if round >= before {
			continue
		}
		if pruned == nil {
			pruned = make(map[uint64]map[types.Address]types.SealedBatch)
		}
		pruned[round] = batches
		delete(shared.sealedBatches, round)
	}
	return pruned
}

// IterateCommittee runs the given function over every committee member under
// the committee read lock, stopping early when fn returns true. fn must not
// call back into committee-mutating operations.
func (shared *SharedState) IterateCommittee(fn func(addr types.Address, stake uint64) bool) {
	shared.committeeMtx.RLock()
	defer shared.committeeMtx.RUnlock()

	for addr, stake := range shared.committee {
		if stop := fn(addr, stake); stop {
			break
		}
	}
}

// CommitteeSize returns the number of validators in the committee.
func (shared *SharedState) CommitteeSize() int {
	shared.committeeMtx.RLock()
	defer shared.committeeMtx.RUnlock()
	return len(shared.committee)
}

// IsCommitteeMember returns true if the given address is in the committee.
func (shared *SharedState) IsCommitteeMember(addr types.Address) bool {
	shared.committeeMtx.RLock()
	defer shared.committeeMtx.RUnlock()
	_, ok := shared.committee[addr]
	return ok
}

// Stake returns the stake registered for the given address.
func (shared *SharedState) Stake(addr types.Address) (uint64, bool) {
	shared.committeeMtx.RLock()
	defer shared.committeeMtx.RUnlock()
	stake, ok := shared.committee[addr]
	return stake, ok
}

// TotalStake returns the total amount of stake in the committee. The whole
// committee is summed under a single read-lock acquisition, so a
// half-updated committee is never observed.
func (shared *SharedState) TotalStake() (uint64, error) {
	shared.committeeMtx.RLock()
	defer shared.committeeMtx.RUnlock()

	var power uint64
	for _, stake := range shared.committee {
		if power > math.MaxUint64-stake {
			return 0, ErrStakeOverflow{Partial: power, Stake: stake}
		}
		power += stake
	}
	return power, nil
}

// QuorumThreshold returns the amount of stake required to reach a quorum
// threshold (2f + 1).
//
// Assuming N = 3f + 1 + k, where 0 <= k < 3,
// then floor(2N/3) + 1 = 2f + 1 + k = N - f.
func (shared *SharedState) QuorumThreshold() (uint64, error) {
	total, err := shared.TotalStake()
	if err != nil {
		return 0, err
	}
	doubled := total * 2
	if total > math.MaxUint64/2 {
		doubled = math.MaxUint64
	}
	return doubled/3 + 1, nil
}

// AvailabilityThreshold returns the amount of stake required to reach the
// availability threshold (f + 1).
//
// Assuming N = 3f + 1 + k, where 0 <= k < 3,
// then floor((N + 2)/3) = f + 1.
func (shared *SharedState) AvailabilityThreshold() (uint64, error) {
	total, err := shared.TotalStake()
	if err != nil {
		return 0, err
	}
	sum := total + 2
	if total > math.MaxUint64-2 {
		sum = math.MaxUint64
	}
	return sum / 3, nil
}

// GetPeerIP returns the peer address for the given validator.
func (shared *SharedState) GetPeerIP(addr types.Address) (string, bool) {
	shared.peerMtx.RLock()
	defer shared.peerMtx.RUnlock()
	peerIP, ok := shared.addressPeers[addr]
	return peerIP, ok
}

// GetAddress returns the validator for the given peer address.
func (shared *SharedState) GetAddress(peerIP string) (types.Address, bool) {
	shared.peerMtx.RLock()
	defer shared.peerMtx.RUnlock()
	addr, ok := shared.peerAddresses[peerIP]
	return addr, ok
}

// InsertPeer records the given peer in both directions of the mapping as one
// atomic update. If either side was already mapped to a different
// counterpart, it is silently overwritten (last write wins).
func (shared *SharedState) InsertPeer(peerIP string, addr types.Address) {
	shared.peerMtx.Lock()
	defer shared.peerMtx.Unlock()
	shared.peerAddresses[peerIP] = addr
	shared.addressPeers[addr] = peerIP
}

// RemovePeer removes the given peer from both directions of the mapping.
// No-op if the peer was never inserted.
func (shared *SharedState) RemovePeer(peerIP string) {
	shared.peerMtx.Lock()
	defer shared.peerMtx.Unlock()
	if addr, ok := shared.peerAddresses[peerIP]; ok {
		delete(shared.peerAddresses, peerIP)
		delete(shared.addressPeers, addr)
	}
}

// Peers returns a snapshot of the peer-to-validator mapping.
func (shared *SharedState) Peers() map[string]types.Address {
	shared.peerMtx.RLock()
	defer shared.peerMtx.RUnlock()
	peers := make(map[string]types.Address, len(shared.peerAddresses))
	for peerIP, addr := range shared.peerAddresses {
		peers[peerIP] = addr
	}
	return peers
}

// RemoveAllPeers drops the entire peer mapping. Used during shutdown after
// the networking layer has disconnected.
func (shared *SharedState) RemoveAllPeers() {
	shared.peerMtx.Lock()
	defer shared.peerMtx.Unlock()
	shared.peerAddresses = make(map[string]types.Address)
	shared.addressPeers = make(map[types.Address]string)
}
