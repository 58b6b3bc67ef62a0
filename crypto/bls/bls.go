package bls

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/crypto/tmhash"
	tmjson "github.com/tendermint/tendermint/libs/json"
	"go.dedis.ch/kyber/v3/pairing/bn256"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/kyber/v3/xof/blake2xb"
)

const (
	PrivKeyName = "dagbft/PrivKeyBLS"
	PubKeyName  = "dagbft/PubKeyBLS"

	KeyType = "bls"
)

var suite = bn256.NewSuite()

func init() {
	tmjson.RegisterType(PubKey{}, PubKeyName)
	tmjson.RegisterType(PrivKey{}, PrivKeyName)
}

// PrivKey is a BLS private key (a marshaled scalar).
type PrivKey []byte

var _ crypto.PrivKey = PrivKey{}

// GenPrivKey generates a new BLS private key from secure randomness.
func GenPrivKey() PrivKey {
	scalar, _ := bls.NewKeyPair(suite, random.New())
	bz, err := scalar.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return PrivKey(bz)
}

// GenPrivKeyWithSeed deterministically generates a BLS private key from the
// given seed. Intended for cluster setup and tests.
func GenPrivKeyWithSeed(seed int64) PrivKey {
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], uint64(seed))

	scalar, _ := bls.NewKeyPair(suite, blake2xb.New(seedBytes[:]))
	bz, err := scalar.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return PrivKey(bz)
}

func (privKey PrivKey) Bytes() []byte {
	return []byte(privKey)
}

// Sign produces a BLS signature on msg.
func (privKey PrivKey) Sign(msg []byte) ([]byte, error) {
	scalar := suite.G2().Scalar()
	if err := scalar.UnmarshalBinary(privKey); err != nil {
		return nil, err
	}
	return bls.Sign(suite, scalar, msg)
}

// PubKey derives the public key point for this private key.
func (privKey PrivKey) PubKey() crypto.PubKey {
	scalar := suite.G2().Scalar()
	if err := scalar.UnmarshalBinary(privKey); err != nil {
		panic(err)
	}
	point := suite.G2().Point().Mul(scalar, nil)
	bz, err := point.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return PubKey(bz)
}

func (privKey PrivKey) Equals(other crypto.PrivKey) bool {
	if otherBLS, ok := other.(PrivKey); ok {
		return bytes.Equal(privKey, otherBLS)
	}
	return false
}

func (privKey PrivKey) Type() string {
	return KeyType
}

// PubKey is a BLS public key (a marshaled G2 point).
type PubKey []byte

var _ crypto.PubKey = PubKey{}

// Address is the truncated hash of the marshaled public key.
func (pubKey PubKey) Address() crypto.Address {
	return crypto.Address(tmhash.SumTruncated(pubKey))
}

func (pubKey PubKey) Bytes() []byte {
	return []byte(pubKey)
}

// VerifySignature checks a BLS signature on msg.
func (pubKey PubKey) VerifySignature(msg []byte, sig []byte) bool {
	point := suite.G2().Point()
	if err := point.UnmarshalBinary(pubKey); err != nil {
		return false
	}
	return bls.Verify(suite, point, msg, sig) == nil
}

func (pubKey PubKey) Equals(other crypto.PubKey) bool {
	if otherBLS, ok := other.(PubKey); ok {
		return bytes.Equal(pubKey, otherBLS)
	}
	return false
}

func (pubKey PubKey) Type() string {
	return KeyType
}

func (pubKey PubKey) String() string {
	return fmt.Sprintf("PubKeyBLS{%X}", []byte(pubKey))
}
