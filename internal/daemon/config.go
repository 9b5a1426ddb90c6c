// Package daemon boots and runs the commonwealth economy node: config,
// store, engine, scheduler and the HTTP API.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/app/engine"
)

// Config is the full daemon configuration, loaded from TOML.
type Config struct {
	API        APIConfig        `toml:"api"`
	Storage    StorageConfig    `toml:"storage"`
	Economy    EconomyConfig    `toml:"economy"`
	Staking    StakingConfig    `toml:"staking"`
	Governance GovernanceConfig `toml:"governance"`
	Gravity    GravityConfig    `toml:"gravity"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
	Log        LogConfig        `toml:"log"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig locates the SQLite store.
type StorageConfig struct {
	Path string `toml:"path"`
}

// EconomyConfig controls transfer and backing economics.
type EconomyConfig struct {
	BurnRate      float64 `toml:"burn_rate"`
	MaxTransfer   float64 `toml:"max_transfer"`
	LitersPerBurn float64 `toml:"liters_per_burn"`
	BackingRatio  float64 `toml:"backing_ratio"`
}

// StakingConfig controls yield economics.
type StakingConfig struct {
	APR         float64 `toml:"apr"`
	ExitFeeRate float64 `toml:"exit_fee_rate"`
}

// GovernanceConfig controls the proposal lifecycle.
type GovernanceConfig struct {
	ProposalFee      float64 `toml:"proposal_fee"`
	VotingPeriodDays int     `toml:"voting_period_days"`
	QuorumFraction   float64 `toml:"quorum_fraction"`
	PassThreshold    float64 `toml:"pass_threshold"`
}

// GravityConfig controls the redistribution well.
type GravityConfig struct {
	CaptureFraction float64 `toml:"capture_fraction"`
	Threshold       float64 `toml:"threshold"`
	IntervalMinutes int     `toml:"interval_minutes"`
	MinDistribution float64 `toml:"min_distribution"`
	MinPerRecipient float64 `toml:"min_per_recipient"`
}

// SchedulerConfig controls the background cadence.
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron expression
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// DefaultConfig returns the node defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8420,
			Metrics: true,
		},
		Storage: StorageConfig{
			Path: filepath.Join(dataHome(), "economy.db"),
		},
		Economy: EconomyConfig{
			BurnRate:      0.01,
			MaxTransfer:   1000,
			LitersPerBurn: 0.001,
			BackingRatio:  1000,
		},
		Staking: StakingConfig{
			APR:         0.10,
			ExitFeeRate: 0.10,
		},
		Governance: GovernanceConfig{
			ProposalFee:      10,
			VotingPeriodDays: 7,
			QuorumFraction:   0.10,
			PassThreshold:    0.60,
		},
		Gravity: GravityConfig{
			CaptureFraction: 0.01,
			Threshold:       100,
			IntervalMinutes: 60,
			MinDistribution: 1,
			MinPerRecipient: 0.01,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Schedule: "0 * * * *",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// dataHome returns the default data directory (~/.ked).
func dataHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ked"
	}
	return filepath.Join(home, ".ked")
}

// Load reads a TOML config file over the defaults. A missing file is not an
// error: the defaults stand.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = filepath.Join(dataHome(), "config.toml")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the economy cannot run with.
func (c Config) Validate() error {
	if c.Economy.BurnRate < 0 || c.Economy.BurnRate >= 1 {
		return fmt.Errorf("economy.burn_rate must be in [0, 1), got %v", c.Economy.BurnRate)
	}
	if c.Staking.ExitFeeRate < 0 || c.Staking.ExitFeeRate >= 1 {
		return fmt.Errorf("staking.exit_fee_rate must be in [0, 1), got %v", c.Staking.ExitFeeRate)
	}
	if c.Governance.QuorumFraction <= 0 || c.Governance.QuorumFraction > 1 {
		return fmt.Errorf("governance.quorum_fraction must be in (0, 1], got %v", c.Governance.QuorumFraction)
	}
	if c.Governance.PassThreshold <= 0 || c.Governance.PassThreshold > 1 {
		return fmt.Errorf("governance.pass_threshold must be in (0, 1], got %v", c.Governance.PassThreshold)
	}
	if c.Governance.VotingPeriodDays < 1 {
		return fmt.Errorf("governance.voting_period_days must be at least 1, got %d", c.Governance.VotingPeriodDays)
	}
	if c.Gravity.IntervalMinutes < 1 {
		return fmt.Errorf("gravity.interval_minutes must be at least 1, got %d", c.Gravity.IntervalMinutes)
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be a valid port, got %d", c.API.Port)
	}
	return nil
}

// EngineConfig converts the file shape into the engine's parameter set.
func (c Config) EngineConfig() engine.Config {
	ec := engine.DefaultConfig()
	ec.Ledger.BurnRate = c.Economy.BurnRate
	ec.Ledger.MaxTransfer = c.Economy.MaxTransfer
	ec.Reserve.LitersPerBurn = c.Economy.LitersPerBurn
	ec.Reserve.BackingRatio = c.Economy.BackingRatio
	ec.Staking.APR = c.Staking.APR
	ec.Staking.ExitFeeRate = c.Staking.ExitFeeRate
	ec.Governance.ProposalFee = c.Governance.ProposalFee
	ec.Governance.VotingPeriod = time.Duration(c.Governance.VotingPeriodDays) * 24 * time.Hour
	ec.Governance.QuorumFraction = c.Governance.QuorumFraction
	ec.Governance.PassThreshold = c.Governance.PassThreshold
	ec.Gravity.CaptureFraction = c.Gravity.CaptureFraction
	ec.Gravity.Threshold = c.Gravity.Threshold
	ec.Gravity.Interval = time.Duration(c.Gravity.IntervalMinutes) * time.Minute
	ec.Gravity.MinDistribution = c.Gravity.MinDistribution
	ec.Gravity.MinPerRecipient = c.Gravity.MinPerRecipient
	return ec
}
