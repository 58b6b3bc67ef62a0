package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dagbft_demo/crypto/bls"
)

func TestValidatorBasic(t *testing.T) {
	pub := bls.GenPrivKeyWithSeed(9).PubKey()
	val := NewValidator(pub, 3)
	require.NoError(t, val.ValidateBasic())
	assert.Equal(t, GetAddress(pub), val.Address)

	cp := val.Copy()
	cp.Stake = 5
	assert.EqualValues(t, 3, val.Stake)
	assert.Contains(t, val.String(), "stake:3")

	val.PubKey = nil
	assert.Error(t, val.ValidateBasic())

	var nilVal *Validator
	assert.Error(t, nilVal.ValidateBasic())
}
