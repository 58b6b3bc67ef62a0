package main

import (
	"fmt"
	"os"
	"path/filepath"

	cfg "github.com/tendermint/tendermint/config"
	"github.com/tendermint/tendermint/libs/cli"

	cmd "dagbft_demo/cmd/commands"
	nm "dagbft_demo/node"
)

func main() {
	cfg.DefaultTendermintDir = ".dagbft"
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cli.NewCompletionCmd(rootCmd, true),
	)

	// Users wishing to supply a genesis doc from another source or their own
	// DB implementation can copy this file and use something other than the
	// DefaultNewNode function.
	nodeFunc := nm.DefaultNewNode

	rootCmd.AddCommand(
		cmd.InitFilesCmd,
		cmd.GenNodeKeyCmd,
		cmd.GenValidatorCmd,
		cmd.ShowNodeIDCmd,
		cmd.ShowValidatorCmd,
		cmd.GenGenesisCmd,
		cmd.NewRunNodeCmd(nodeFunc),
	)
	baseCmd := cli.PrepareBaseCmd(rootCmd, "DAGBFT", os.ExpandEnv(filepath.Join("$HOME", cfg.DefaultTendermintDir)))

	if err := baseCmd.Execute(); err != nil {
		fmt.Println("error")
		panic(err)
	}
}
