package privval

import (
	"fmt"
	"io/ioutil"

	"github.com/tendermint/tendermint/crypto"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmos "github.com/tendermint/tendermint/libs/os"
	"github.com/tendermint/tendermint/libs/tempfile"

	"dagbft_demo/crypto/bls"
	"dagbft_demo/types"
)

//-------------------------------------------------------------------------------

// FilePVKey stores the immutable part of the validator identity.
type FilePVKey struct {
	Address types.Address  `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	PrivKey crypto.PrivKey `json:"priv_key"`

	filePath string
}

// Save persists the FilePVKey to its filePath.
func (pvKey FilePVKey) Save() {
	outFile := pvKey.filePath
	if outFile == "" {
		panic("cannot save validator key: filePath not set")
	}

	jsonBytes, err := tmjson.MarshalIndent(pvKey, "", "  ")
	if err != nil {
		panic(err)
	}
	err = tempfile.WriteFileAtomic(outFile, jsonBytes, 0600)
	if err != nil {
		panic(err)
	}
}

//-------------------------------------------------------------------------------

// FilePV holds the validator's BLS key pair, persisted to disk. It is how
// the node knows its own committee identity.
type FilePV struct {
	Key FilePVKey
}

// NewFilePV wraps the given key and file path.
func NewFilePV(privKey crypto.PrivKey, keyFilePath string) *FilePV {
	return &FilePV{
		Key: FilePVKey{
			Address:  types.GetAddress(privKey.PubKey()),
			PubKey:   privKey.PubKey(),
			PrivKey:  privKey,
			filePath: keyFilePath,
		},
	}
}

// GenFilePV generates a new validator with a fresh BLS key.
func GenFilePV(keyFilePath string) *FilePV {
	return NewFilePV(bls.GenPrivKey(), keyFilePath)
}

// GenFilePVWithSeed generates a validator deterministically from a seed.
// Intended for cluster setup and tests.
func GenFilePVWithSeed(keyFilePath string, seed int64) *FilePV {
	return NewFilePV(bls.GenPrivKeyWithSeed(seed), keyFilePath)
}

// LoadFilePV loads a FilePV from the given file path.
func LoadFilePV(keyFilePath string) *FilePV {
	keyJSONBytes, err := ioutil.ReadFile(keyFilePath)
	if err != nil {
		tmos.Exit(err.Error())
	}
	pvKey := FilePVKey{}
	err = tmjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		tmos.Exit(fmt.Sprintf("error reading validator key from %v: %v", keyFilePath, err))
	}
	pvKey.filePath = keyFilePath
	return &FilePV{Key: pvKey}
}

// LoadOrGenFilePV loads the key file if it exists, otherwise generates and
// saves a fresh one.
func LoadOrGenFilePV(keyFilePath string) *FilePV {
	if tmos.FileExists(keyFilePath) {
		return LoadFilePV(keyFilePath)
	}
	pv := GenFilePV(keyFilePath)
	pv.Save()
	return pv
}

// GetPubKey returns the public key of the validator.
func (pv *FilePV) GetPubKey() (crypto.PubKey, error) {
	return pv.Key.PubKey, nil
}

// GetAddress returns the validator's committee address.
func (pv *FilePV) GetAddress() types.Address {
	return pv.Key.Address
}

// SignBytes signs arbitrary protocol bytes with the validator key.
func (pv *FilePV) SignBytes(msg []byte) ([]byte, error) {
	return pv.Key.PrivKey.Sign(msg)
}

// Save persists the validator key to disk.
func (pv *FilePV) Save() {
	pv.Key.Save()
}

func (pv *FilePV) String() string {
	return fmt.Sprintf("FilePV{%v}", pv.Key.Address)
}
