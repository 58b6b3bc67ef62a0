package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmos "github.com/tendermint/tendermint/libs/os"

	"dagbft_demo/privval"
)

// GenValidatorCmd generates a validator keypair and writes it to the
// configured key file.
var GenValidatorCmd = &cobra.Command{
	Use:     "gen-validator",
	Aliases: []string{"gen_validator"},
	Args:    cobra.ArbitraryArgs,
	Short:   "Generate new validator keypair",
	PreRun:  deprecateSnakeCase,
	Run:     genValidator,
}

func init() {
	GenValidatorCmd.Flags().Int64Var(&seed, "seed", 0, "deterministic seed for the validator key, 0 for random")
}

func genValidator(cmd *cobra.Command, args []string) {
	privValKeyFile := config.PrivValidatorKeyFile()
	if tmos.FileExists(privValKeyFile) {
		logger.Info("Found private validator", "keyFile", privValKeyFile)
		return
	}

	var pv *privval.FilePV
	if seed != 0 {
		pv = privval.GenFilePVWithSeed(privValKeyFile, seed)
	} else {
		pv = privval.GenFilePV(privValKeyFile)
	}
	pv.Save()

	jsbz, err := tmjson.Marshal(pv.Key)
	if err != nil {
		panic(err)
	}
	fmt.Printf(`%v
`, string(jsbz))
}
