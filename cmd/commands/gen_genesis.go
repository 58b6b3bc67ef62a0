package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"
	tmtime "github.com/tendermint/tendermint/types/time"

	"dagbft_demo/crypto/bls"
	"dagbft_demo/types"
)

// GenGenesisCmd generates a genesis file for a whole cluster: one validator
// per node, with deterministic keys derived from a shared seed so every node
// can reproduce the file.
var GenGenesisCmd = &cobra.Command{
	Use:     "gen-genesis",
	Aliases: []string{"gen_genesis"},
	Short:   "Generate a genesis file for a cluster",
	RunE:    genGenesisFile,
}

func init() {
	GenGenesisCmd.Flags().StringVar(&chainID, "chainID", "test-chain", "chain name")
	GenGenesisCmd.Flags().Int64Var(&seed, "seed", 1, "seed the cluster keys are derived from")
	GenGenesisCmd.Flags().IntVar(&clusterCount, "cluster-count", 4, "number of validators in the cluster")
	GenGenesisCmd.Flags().Uint64Var(&stake, "stake", 1, "stake assigned to every validator")
	GenGenesisCmd.MarkFlagRequired("cluster-count")
}

func genGenesisFile(cmd *cobra.Command, args []string) error {
	genFile := config.GenesisFile()
	if tmos.FileExists(genFile) {
		logger.Info("Found genesis file, exiting", "path", genFile)
		return nil
	}

	valList := make([]types.GenesisValidator, clusterCount)
	for id := 1; id <= clusterCount; id++ {
		pub := bls.GenPrivKeyWithSeed(seed + int64(id)).PubKey()

		valList[id-1] = types.GenesisValidator{
			Address: types.GetAddress(pub),
			PubKey:  pub,
			Stake:   stake,
			Name:    fmt.Sprintf("validator-%v", id),
		}
	}

	genDoc := types.GenesisDoc{
		ChainID:     chainID,
		GenesisTime: tmtime.Now(),
		Validators:  valList,
	}
	if err := genDoc.ValidateAndComplete(); err != nil {
		return err
	}

	if err := genDoc.SaveAs(genFile); err != nil {
		return err
	}
	logger.Info("Generated genesis file", "path", genFile, "validators", clusterCount)

	return nil
}
