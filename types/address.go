package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tendermint/tendermint/crypto"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
)

// AddressSize is the fixed length, in bytes, of a validator address.
const AddressSize = crypto.AddressSize

// Address identifies a validator in the committee. It is a fixed-size value
// (the truncated hash of the validator's public key) so it can be used
// directly as a map key.
type Address [AddressSize]byte

// GetAddress derives the validator address from a public key.
func GetAddress(key crypto.PubKey) Address {
	var addr Address
	copy(addr[:], key.Address())
	return addr
}

// AddressFromBytes converts a raw byte slice into an Address.
func AddressFromBytes(bz []byte) (Address, error) {
	var addr Address
	if len(bz) != AddressSize {
		return addr, fmt.Errorf("address is the wrong size: got %d bytes, want %d", len(bz), AddressSize)
	}
	copy(addr[:], bz)
	return addr, nil
}

// AddressFromString parses the hex form produced by String.
func AddressFromString(s string) (Address, error) {
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Address{}, err
	}
	return AddressFromBytes(bz)
}

func (addr Address) Bytes() tmbytes.HexBytes {
	bz := make([]byte, AddressSize)
	copy(bz, addr[:])
	return bz
}

func (addr Address) Equal(other Address) bool {
	return addr == other
}

func (addr Address) String() string {
	return strings.ToUpper(hex.EncodeToString(addr[:]))
}

func (addr Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + addr.String() + `"`), nil
}

func (addr *Address) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid address json: %s", data)
	}
	decoded, err := AddressFromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*addr = decoded
	return nil
}
