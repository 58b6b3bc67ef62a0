package types

import (
	"errors"
	"fmt"

	"github.com/tendermint/tendermint/crypto"
)

// Validator couples a committee member's identity with its stake weight.
// NOTE: all get/set through the shared state should copy the value for safety.
type Validator struct {
	Address Address       `json:"address"`
	PubKey  crypto.PubKey `json:"pub_key"`
	Stake   uint64        `json:"stake"`
}

// NewValidator returns a new validator with the given pubkey and stake.
func NewValidator(pubKey crypto.PubKey, stake uint64) *Validator {
	return &Validator{
		Address: GetAddress(pubKey),
		PubKey:  pubKey,
		Stake:   stake,
	}
}

// ValidateBasic performs basic validation.
func (v *Validator) ValidateBasic() error {
	if v == nil {
		return errors.New("nil validator")
	}
	if v.PubKey == nil {
		return errors.New("validator does not have a public key")
	}
	if v.Address != GetAddress(v.PubKey) {
		return fmt.Errorf("validator address %v does not match public key", v.Address)
	}
	return nil
}

func (v *Validator) Copy() *Validator {
	vCopy := *v
	return &vCopy
}

func (v *Validator) String() string {
	if v == nil {
		return "nil-Validator"
	}
	return fmt.Sprintf("Validator{%v %v stake:%d}", v.Address, v.PubKey, v.Stake)
}
