package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show economy status from a running node",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://%s/api/status", cfg.API.Addr())
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("node not reachable at %s: %w", cfg.API.Addr(), err)
	}
	defer resp.Body.Close()

	var status struct {
		TotalSupply   float64 `json:"total_supply"`
		Circulating   float64 `json:"circulating"`
		Staked        float64 `json:"staked"`
		StakingRatio  float64 `json:"staking_ratio"`
		TotalMinted   float64 `json:"total_minted"`
		TotalBurned   float64 `json:"total_burned"`
		AccountCount  int     `json:"account_count"`
		TreasuryFunds float64 `json:"treasury_funds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Accounts:       %d\n", status.AccountCount)
	fmt.Fprintf(os.Stdout, "Total supply:   %.4f dust\n", status.TotalSupply)
	fmt.Fprintf(os.Stdout, "  circulating:  %.4f\n", status.Circulating)
	fmt.Fprintf(os.Stdout, "  staked:       %.4f (%.1f%%)\n", status.Staked, status.StakingRatio*100)
	fmt.Fprintf(os.Stdout, "Minted:         %.4f\n", status.TotalMinted)
	fmt.Fprintf(os.Stdout, "Burned:         %.4f\n", status.TotalBurned)
	fmt.Fprintf(os.Stdout, "Treasury:       %.4f\n", status.TreasuryFunds)
	return nil
}
