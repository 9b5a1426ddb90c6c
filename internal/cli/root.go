// Package cli implements the kedd command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kedd",
	Short: "Commonwealth economy node",
	Long: `kedd runs the commonwealth ledger: dust accounts, fee-burning
transfers, staking with yield, quorum governance, the water reserve and the
gravity well redistribution loop.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config.toml (default ~/.ked/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
