package consensus

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tmrand "github.com/tendermint/tendermint/libs/rand"

	"dagbft_demo/types"
)

func randAddress(t *testing.T) types.Address {
	t.Helper()
	addr, err := types.AddressFromBytes(tmrand.Bytes(types.AddressSize))
	require.NoError(t, err)
	return addr
}

func randSealedBatch(t *testing.T, round uint64, author types.Address) types.SealedBatch {
	t.Helper()
	batch := types.Batch{
		Author:  author,
		Round:   round,
		Payload: tmrand.Bytes(32),
	}
	cert := types.BatchCertificate{
		BatchHash: batch.Hash(),
		Round:     round,
		Signature: tmrand.Bytes(48),
	}
	return types.NewSealedBatch(batch, cert)
}

// newTestCommittee builds a shared state whose committee holds the given
// stakes, one random validator per stake.
func newTestCommittee(t *testing.T, stakes ...uint64) *SharedState {
	t.Helper()
	shared := NewSharedState(0, 0)
	for _, stake := range stakes {
		require.NoError(t, shared.AddValidator(randAddress(t), stake))
	}
	return shared
}

func TestAddValidatorDuplicate(t *testing.T) {
	shared := NewSharedState(0, 0)
	addr := randAddress(t)

	require.NoError(t, shared.AddValidator(addr, 10))
	assert.True(t, shared.IsCommitteeMember(addr))
	assert.Equal(t, 1, shared.CommitteeSize())

	err := shared.AddValidator(addr, 20)
	require.Error(t, err)
	assert.True(t, IsErrDuplicateValidator(err))

	// the failed call must not change the committee
	assert.Equal(t, 1, shared.CommitteeSize())
	stake, ok := shared.Stake(addr)
	require.True(t, ok)
	assert.EqualValues(t, 10, stake)
}

func TestThresholds(t *testing.T) {
	testCases := []struct {
		name         string
		stakes       []uint64
		total        uint64
		quorum       uint64
		availability uint64
	}{
		{"single validator", []uint64{1}, 1, 1, 1},
		{"uneven stakes", []uint64{10, 10, 10, 1}, 31, 21, 11},
		{"equal stakes", []uint64{3, 3, 3}, 9, 7, 3},
		{"four of one", []uint64{1, 1, 1, 1}, 4, 3, 2},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			shared := newTestCommittee(t, tc.stakes...)

			total, err := shared.TotalStake()
			require.NoError(t, err)
			assert.Equal(t, tc.total, total)

			quorum, err := shared.QuorumThreshold()
			require.NoError(t, err)
			assert.Equal(t, tc.quorum, quorum)

			availability, err := shared.AvailabilityThreshold()
			require.NoError(t, err)
			assert.Equal(t, tc.availability, availability)

			// quorum + availability - 1 never exceeds the total stake
			assert.LessOrEqual(t, quorum+availability-1, total)
			assert.GreaterOrEqual(t, quorum, uint64(1))
			assert.GreaterOrEqual(t, availability, uint64(1))
		})
	}
}

func TestTotalStakeOverflow(t *testing.T) {
	shared := newTestCommittee(t, math.MaxUint64-1, 2)

	_, err := shared.TotalStake()
	require.Error(t, err)
	assert.True(t, IsErrStakeOverflow(err))

	// both thresholds surface the same failure
	_, err = shared.QuorumThreshold()
	assert.True(t, IsErrStakeOverflow(err))
	_, err = shared.AvailabilityThreshold()
	assert.True(t, IsErrStakeOverflow(err))
}

func TestThresholdsSaturate(t *testing.T) {
	// A total stake of MaxUint64 is representable; the threshold arithmetic
	// must clamp instead of wrapping.
	shared := newTestCommittee(t, math.MaxUint64)

	total, err := shared.TotalStake()
	require.NoError(t, err)
	assert.EqualValues(t, uint64(math.MaxUint64), total)

	quorum, err := shared.QuorumThreshold()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64)/3+1, quorum)

	availability, err := shared.AvailabilityThreshold()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64)/3, availability)
}

func TestPreviousCertificatesGenesis(t *testing.T) {
	shared := NewSharedState(0, 0)

	// the genesis round never has prior certificates, with or without data
	assert.Nil(t, shared.PreviousCertificates(0))

	addr := randAddress(t)
	shared.StoreSealedBatch(0, addr, randSealedBatch(t, 0, addr))
	assert.Nil(t, shared.PreviousCertificates(0))
}

func TestPreviousCertificates(t *testing.T) {
	shared := NewSharedState(5, 0)

	// no data recorded for round 4 yet
	assert.Nil(t, shared.PreviousCertificates(5))

	sealed := make([]types.SealedBatch, 3)
	for i := range sealed {
		addr := randAddress(t)
		sealed[i] = randSealedBatch(t, 4, addr)
		shared.StoreSealedBatch(4, addr, sealed[i])
	}

	certificates := shared.PreviousCertificates(5)
	require.Len(t, certificates, 3)

	// order is unspecified; compare as a set
	want := make(map[string]struct{}, len(sealed))
	for _, sb := range sealed {
		want[sb.Certificate().BatchHash.String()] = struct{}{}
	}
	for _, cert := range certificates {
		_, ok := want[cert.BatchHash.String()]
		assert.True(t, ok, "unexpected certificate %v", cert.BatchHash)
	}
}

func TestSealedBatchesSnapshot(t *testing.T) {
	shared := NewSharedState(0, 0)

	assert.Nil(t, shared.SealedBatches(7))

	addr := randAddress(t)
	first := randSealedBatch(t, 7, addr)
	shared.StoreSealedBatch(7, addr, first)

	snapshot := shared.SealedBatches(7)
	require.Len(t, snapshot, 1)

	// overwriting the live entry must not leak into the snapshot
	second := randSealedBatch(t, 7, addr)
	shared.StoreSealedBatch(7, addr, second)

	assert.Equal(t, first.Certificate().BatchHash, snapshot[addr].Certificate().BatchHash)

	other := randAddress(t)
	shared.StoreSealedBatch(7, other, randSealedBatch(t, 7, other))
	assert.Len(t, snapshot, 1)
	assert.Len(t, shared.SealedBatches(7), 2)
}

func TestPeerMapping(t *testing.T) {
	shared := NewSharedState(0, 0)
	addr := randAddress(t)
	const peerIP = "192.168.0.7:4133"

	_, ok := shared.GetPeerIP(addr)
	assert.False(t, ok)
	_, ok = shared.GetAddress(peerIP)
	assert.False(t, ok)

	shared.InsertPeer(peerIP, addr)

	gotIP, ok := shared.GetPeerIP(addr)
	require.True(t, ok)
	assert.Equal(t, peerIP, gotIP)
	gotAddr, ok := shared.GetAddress(peerIP)
	require.True(t, ok)
	assert.Equal(t, addr, gotAddr)

	shared.RemovePeer(peerIP)
	_, ok = shared.GetPeerIP(addr)
	assert.False(t, ok)
	_, ok = shared.GetAddress(peerIP)
	assert.False(t, ok)

	// removing twice is a no-op
	shared.RemovePeer(peerIP)
}

func TestInsertPeerLastWriteWins(t *testing.T) {
	shared := NewSharedState(0, 0)
	oldAddr := randAddress(t)
	newAddr := randAddress(t)
	const peerIP = "10.0.0.1:4133"

	shared.InsertPeer(peerIP, oldAddr)
	shared.InsertPeer(peerIP, newAddr)

	gotAddr, ok := shared.GetAddress(peerIP)
	require.True(t, ok)
	assert.Equal(t, newAddr, gotAddr)

	// the old validator's reverse entry dangles until removed explicitly
	staleIP, ok := shared.GetPeerIP(oldAddr)
	assert.True(t, ok)
	assert.Equal(t, peerIP, staleIP)
}

func TestConcurrentIncrement(t *testing.T) {
	shared := NewSharedState(100, 50)

	const goroutines = 64
	const perGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				shared.IncrementRound()
				shared.IncrementHeight()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 100+goroutines*perGoroutine, shared.Round())
	assert.EqualValues(t, 50+goroutines*perGoroutine, shared.Height())
}

func TestPruneRounds(t *testing.T) {
	shared := NewSharedState(5, 0)
	for round := uint64(1); round <= 5; round++ {
		addr := randAddress(t)
		shared.StoreSealedBatch(round, addr, randSealedBatch(t, round, addr))
	}

	pruned := shared.PruneRounds(3)
	require.Len(t, pruned, 2)
	assert.Contains(t, pruned, uint64(1))
	assert.Contains(t, pruned, uint64(2))

	// rounds at or above the cutoff survive
	assert.Nil(t, shared.SealedBatches(1))
	assert.Nil(t, shared.SealedBatches(2))
	assert.NotNil(t, shared.SealedBatches(3))
	assert.NotNil(t, shared.SealedBatches(4))
	assert.NotNil(t, shared.SealedBatches(5))
	assert.Equal(t, 3, shared.BatchRounds())

	// nothing left below the cutoff
	assert.Nil(t, shared.PruneRounds(3))
}

func TestIterateCommittee(t *testing.T) {
	shared := newTestCommittee(t, 1, 2, 3)

	var sum uint64
	var count int
	shared.IterateCommittee(func(addr types.Address, stake uint64) bool {
		sum += stake
		count++
		return false
	})
	assert.EqualValues(t, 6, sum)
	assert.Equal(t, 3, count)

	// early stop
	count = 0
	shared.IterateCommittee(func(addr types.Address, stake uint64) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)
}

func TestRemoveAllPeers(t *testing.T) {
	shared := NewSharedState(0, 0)
	addrs := []types.Address{randAddress(t), randAddress(t)}
	shared.InsertPeer("10.0.0.1:4133", addrs[0])
	shared.InsertPeer("10.0.0.2:4133", addrs[1])

	shared.RemoveAllPeers()

	for _, addr := range addrs {
		_, ok := shared.GetPeerIP(addr)
		assert.False(t, ok)
	}
}
