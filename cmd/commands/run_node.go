package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"

	nm "dagbft_demo/node"
)

// AddNodeFlags exposes the config options the run command accepts.
func AddNodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc.laddr", config.RPC.ListenAddress, "RPC listen address (port required)")
	cmd.Flags().String("db_dir", config.DBPath, "database directory")
}

// NewRunNodeCmd returns the command that boots the node through the given
// provider and blocks until it is signaled to stop.
func NewRunNodeCmd(nodeProvider nm.Provider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"node", "run"},
		Short:   "Run the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := nodeProvider(config, logger)
			if err != nil {
				return fmt.Errorf("failed to create node: %w", err)
			}

			if err := n.Start(); err != nil {
				return fmt.Errorf("failed to start node: %w", err)
			}
			logger.Info("Started node", "status", n.Status())

			// Stop upon receiving SIGTERM or CTRL-C.
			tmos.TrapSignal(logger, func() {
				if n.IsRunning() {
					if err := n.Stop(); err != nil {
						logger.Error("unable to stop the node", "error", err)
					}
				}
			})

			// Run forever.
			select {}
		},
	}

	AddNodeFlags(cmd)
	return cmd
}
