package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	tmjson "github.com/tendermint/tendermint/libs/json"

	"dagbft_demo/privval"
)

// ShowValidatorCmd prints the local validator's public key and address.
var ShowValidatorCmd = &cobra.Command{
	Use:     "show-validator",
	Aliases: []string{"show_validator"},
	Short:   "Show this node's validator info",
	PreRun:  deprecateSnakeCase,
	RunE:    showValidator,
}

func showValidator(cmd *cobra.Command, args []string) error {
	pv := privval.LoadFilePV(config.PrivValidatorKeyFile())
	pubKey, err := pv.GetPubKey()
	if err != nil {
		return fmt.Errorf("can't get pubkey: %w", err)
	}

	bz, err := tmjson.Marshal(pubKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}

	fmt.Printf("%v\t%v\n", pv.GetAddress(), string(bz))
	return nil
}
