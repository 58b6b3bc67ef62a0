package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	cfg "github.com/tendermint/tendermint/config"
	tmos "github.com/tendermint/tendermint/libs/os"
	tmrand "github.com/tendermint/tendermint/libs/rand"
	"github.com/tendermint/tendermint/p2p"
	tmtime "github.com/tendermint/tendermint/types/time"

	"dagbft_demo/privval"
	"dagbft_demo/types"
)

// InitFilesCmd initialises a fresh single-validator node: validator key,
// node key and a genesis file with the local validator as the committee.
var InitFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a single-validator node",
	RunE:  initFiles,
}

func init() {
	InitFilesCmd.Flags().Uint64Var(&stake, "stake", 1, "stake assigned to the local validator")
}

func initFiles(cmd *cobra.Command, args []string) error {
	return initFilesWithConfig(config)
}

func initFilesWithConfig(config *cfg.Config) error {
	// private validator
	privValKeyFile := config.PrivValidatorKeyFile()

	var pv *privval.FilePV
	if tmos.FileExists(privValKeyFile) {
		pv = privval.LoadFilePV(privValKeyFile)
		logger.Info("Found private validator", "keyFile", privValKeyFile)
	} else {
		pv = privval.GenFilePV(privValKeyFile)
		pv.Save()
		logger.Info("Generated private validator", "keyFile", privValKeyFile)
	}

	nodeKeyFile := config.NodeKeyFile()
	if tmos.FileExists(nodeKeyFile) {
		logger.Info("Found node key", "path", nodeKeyFile)
	} else {
		if _, err := p2p.LoadOrGenNodeKey(nodeKeyFile); err != nil {
			return err
		}
		logger.Info("Generated node key", "path", nodeKeyFile)
	}

	// genesis file
	genFile := config.GenesisFile()
	if tmos.FileExists(genFile) {
		logger.Info("Found genesis file", "path", genFile)
		return nil
	}

	pubKey, err := pv.GetPubKey()
	if err != nil {
		return fmt.Errorf("can't get pubkey: %w", err)
	}

	genDoc := types.GenesisDoc{
		ChainID:     fmt.Sprintf("test-chain-%v", tmrand.Str(6)),
		GenesisTime: tmtime.Now(),
		Validators: []types.GenesisValidator{{
			Address: types.GetAddress(pubKey),
			PubKey:  pubKey,
			Stake:   stake,
			Name:    "local",
		}},
	}
	if err := genDoc.ValidateAndComplete(); err != nil {
		return err
	}
	if err := genDoc.SaveAs(genFile); err != nil {
		return err
	}
	logger.Info("Generated genesis file", "path", genFile)

	return nil
}
