package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tmrand "github.com/tendermint/tendermint/libs/rand"
	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"

	"dagbft_demo/consensus"
	"dagbft_demo/libs/metric"
	"dagbft_demo/types"
)

func randAddress() types.Address {
	var addr types.Address
	copy(addr[:], tmrand.Bytes(types.AddressSize))
	return addr
}

func setupEnv(t *testing.T) *consensus.SharedState {
	shared := consensus.NewSharedState(5, 2)
	for _, stake := range []uint64{10, 10, 10, 1} {
		require.NoError(t, shared.AddValidator(randAddress(), stake))
	}

	metricSet := metric.NewMetricSet()
	require.NoError(t, metricSet.Register("consensus", consensus.NewSharedMetric(shared)))

	SetEnvironment(&Environment{
		Shared:    shared,
		Status:    func() string { return "Mining" },
		MetricSet: metricSet,
	})
	return shared
}

func TestStatusHandler(t *testing.T) {
	setupEnv(t)

	result, err := Status(&rpctypes.Context{})
	require.NoError(t, err)

	assert.Equal(t, "Mining", result.NodeStatus)
	assert.EqualValues(t, 5, result.Round)
	assert.EqualValues(t, 2, result.Height)
	assert.Equal(t, 4, result.CommitteeSize)
	assert.Equal(t, 0, result.BatchRounds)
}

func TestCommitteeHandler(t *testing.T) {
	setupEnv(t)

	result, err := Committee(&rpctypes.Context{})
	require.NoError(t, err)

	assert.Len(t, result.Validators, 4)
	assert.EqualValues(t, 31, result.TotalStake)
}

func TestThresholdsHandler(t *testing.T) {
	setupEnv(t)

	result, err := Thresholds(&rpctypes.Context{})
	require.NoError(t, err)

	assert.EqualValues(t, 31, result.TotalStake)
	assert.EqualValues(t, 21, result.QuorumThreshold)
	assert.EqualValues(t, 11, result.AvailabilityThreshold)
}

func TestSealedBatchesHandler(t *testing.T) {
	shared := setupEnv(t)

	author := randAddress()
	batch := types.Batch{Author: author, Round: 5, Payload: tmrand.Bytes(8)}
	sealed := types.NewSealedBatch(batch, types.BatchCertificate{
		BatchHash: batch.Hash(),
		Round:     5,
		Signature: tmrand.Bytes(16),
	})
	shared.StoreSealedBatch(5, author, sealed)

	result, err := SealedBatches(&rpctypes.Context{}, 5)
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)
	assert.Equal(t, batch.Hash(), result.Batches[author.String()].Batch.Hash())

	empty, err := SealedBatches(&rpctypes.Context{}, 6)
	require.NoError(t, err)
	assert.Nil(t, empty.Batches)

	certs, err := PreviousCertificates(&rpctypes.Context{}, 6)
	require.NoError(t, err)
	require.Len(t, certs.Certificates, 1)
	assert.Equal(t, batch.Hash(), certs.Certificates[0].BatchHash)
}

func TestMetricsHandler(t *testing.T) {
	setupEnv(t)

	result, err := JSONMetrics(&rpctypes.Context{}, "")
	require.NoError(t, err)
	require.Contains(t, result.Metrics, "consensus")
	assert.NotEmpty(t, result.Metrics["consensus"])

	missing, err := JSONMetrics(&rpctypes.Context{}, "nope")
	require.NoError(t, err)
	assert.Empty(t, missing.Metrics)
}
