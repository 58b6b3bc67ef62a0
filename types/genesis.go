package types

import (
	"errors"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/tendermint/tendermint/crypto"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmos "github.com/tendermint/tendermint/libs/os"
	tmtime "github.com/tendermint/tendermint/types/time"
)

// GenesisValidator is an initial committee member declared in the genesis
// file.
type GenesisValidator struct {
	Address Address       `json:"address"`
	PubKey  crypto.PubKey `json:"pub_key"`
	Stake   uint64        `json:"stake"`
	Name    string        `json:"name"`
}

// Validator converts the genesis entry into a committee Validator.
func (gv GenesisValidator) Validator() *Validator {
	return &Validator{
		Address: gv.Address,
		PubKey:  gv.PubKey,
		Stake:   gv.Stake,
	}
}

// GenesisDoc bootstraps the shared consensus state: the initial committee
// with stakes and the counters the node starts from.
type GenesisDoc struct {
	ChainID       string             `json:"chain_id"`
	GenesisTime   time.Time          `json:"genesis_time"`
	InitialRound  uint64             `json:"initial_round"`
	InitialHeight uint32             `json:"initial_height"`
	Validators    []GenesisValidator `json:"validators"`
}

// ValidateAndComplete checks the consistency of the genesis doc and fills in
// defaults for the fields that have sane ones.
func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}
	if len(genDoc.Validators) == 0 {
		return errors.New("genesis doc must include at least one validator")
	}

	seen := make(map[Address]struct{}, len(genDoc.Validators))
	for i, val := range genDoc.Validators {
		if err := val.Validator().ValidateBasic(); err != nil {
			return fmt.Errorf("genesis validator #%d: %w", i, err)
		}
		if _, ok := seen[val.Address]; ok {
			return fmt.Errorf("genesis validator %v declared twice", val.Address)
		}
		seen[val.Address] = struct{}{}
	}

	if genDoc.GenesisTime.IsZero() {
		genDoc.GenesisTime = tmtime.Now()
	}
	return nil
}

// SaveAs is a utility method for saving GenesisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := tmjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return tmos.WriteFile(file, genDocBytes, 0644)
}

// GenesisDocFromJSON unmarshals a GenesisDoc and validates it.
func GenesisDocFromJSON(jsonBlob []byte) (*GenesisDoc, error) {
	genDoc := GenesisDoc{}
	if err := tmjson.Unmarshal(jsonBlob, &genDoc); err != nil {
		return nil, err
	}
	if err := genDoc.ValidateAndComplete(); err != nil {
		return nil, err
	}
	return &genDoc, nil
}

// GenesisDocFromFile reads and validates the GenesisDoc at the given path.
func GenesisDocFromFile(genDocFile string) (*GenesisDoc, error) {
	jsonBlob, err := ioutil.ReadFile(genDocFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read GenesisDoc file: %w", err)
	}
	genDoc, err := GenesisDocFromJSON(jsonBlob)
	if err != nil {
		return nil, fmt.Errorf("error reading GenesisDoc at %v: %w", genDocFile, err)
	}
	return genDoc, nil
}
