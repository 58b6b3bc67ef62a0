package types

import (
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dagbft_demo/crypto/bls"
)

func makeGenesisDoc(t *testing.T, validators int) *GenesisDoc {
	genDoc := &GenesisDoc{
		ChainID:       "test-chain",
		InitialRound:  7,
		InitialHeight: 2,
	}
	for i := 0; i < validators; i++ {
		pubKey := bls.GenPrivKeyWithSeed(int64(i + 1)).PubKey()
		genDoc.Validators = append(genDoc.Validators, GenesisValidator{
			Address: GetAddress(pubKey),
			PubKey:  pubKey,
			Stake:   uint64(i + 1),
			Name:    fmt.Sprintf("validator-%d", i),
		})
	}
	require.NoError(t, genDoc.ValidateAndComplete())
	return genDoc
}

func TestGenesisSaveLoad(t *testing.T) {
	genDoc := makeGenesisDoc(t, 4)

	f, err := ioutil.TempFile("", "genesis")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	require.NoError(t, genDoc.SaveAs(f.Name()))

	loaded, err := GenesisDocFromFile(f.Name())
	require.NoError(t, err)

	assert.Equal(t, genDoc.ChainID, loaded.ChainID)
	assert.Equal(t, genDoc.InitialRound, loaded.InitialRound)
	assert.Equal(t, genDoc.InitialHeight, loaded.InitialHeight)
	require.Len(t, loaded.Validators, 4)
	for i, val := range loaded.Validators {
		assert.Equal(t, genDoc.Validators[i].Address, val.Address)
		assert.Equal(t, genDoc.Validators[i].Stake, val.Stake)
		assert.True(t, genDoc.Validators[i].PubKey.Equals(val.PubKey))
	}
}

func TestGenesisValidate(t *testing.T) {
	genDoc := &GenesisDoc{}
	assert.Error(t, genDoc.ValidateAndComplete(), "empty chain_id")

	genDoc = makeGenesisDoc(t, 2)
	genDoc.Validators[1] = genDoc.Validators[0]
	assert.Error(t, genDoc.ValidateAndComplete(), "duplicate validator")

	genDoc = makeGenesisDoc(t, 1)
	genDoc.Validators[0].Address[0] ^= 0xff
	assert.Error(t, genDoc.ValidateAndComplete(), "address mismatch")

	genDoc = makeGenesisDoc(t, 1)
	assert.False(t, genDoc.GenesisTime.IsZero())
}
