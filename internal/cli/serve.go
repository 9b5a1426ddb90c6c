package cli

import (
	"github.com/spf13/cobra"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the economy node",
	Long:  `Start the HTTP API and the background scheduler, blocking until interrupted.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return err
	}
	return daemon.Run(cmd.Context(), cfg)
}
