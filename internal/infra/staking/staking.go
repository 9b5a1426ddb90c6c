// Package staking moves dust between the spendable balance and the staked
// pool, paying linear yield on exit.
//
// Each account carries a single stake clock. Adding to an existing stake
// keeps the original start time, so yield on the blended position accrues
// from the first stake. Unstaking everything clears the clock.
package staking

import (
	"fmt"
	"time"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/ledger"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

// secondsPerYear converts elapsed stake time into APR fractions.
const secondsPerYear = 365 * 24 * 3600

// residualStake absorbs float dust left by partial unstakes; anything below
// it counts as a fully closed position.
const residualStake = 1e-9

// ─── Configuration ──────────────────────────────────────────────────────────

// Config controls yield and exit economics.
type Config struct {
	// APR is the annual yield rate on staked dust (0.10 = 10%).
	APR float64

	// ExitFeeRate is the fraction of unstaked principal paid to the
	// treasury (0.10 = 10%).
	ExitFeeRate float64
}

// DefaultConfig returns the economy defaults.
func DefaultConfig() Config {
	return Config{
		APR:         0.10,
		ExitFeeRate: 0.10,
	}
}

// ─── Service ────────────────────────────────────────────────────────────────

// Service executes stake and unstake operations through the ledger's
// account-locking and transaction machinery.
type Service struct {
	db     *sqlite.DB
	ledger *ledger.Ledger
	config Config

	// Injectable clock for testing.
	now func() time.Time
}

// New creates a staking service.
func New(db *sqlite.DB, l *ledger.Ledger, cfg Config) *Service {
	return &Service{db: db, ledger: l, config: cfg, now: time.Now}
}

// StakeResult reports the position after a stake.
type StakeResult struct {
	Staked     float64 `json:"staked"`
	Balance    float64 `json:"balance"`
	FirstStake bool    `json:"first_stake"`
}

// Stake moves amount from the spendable balance into the staked pool.
func (s *Service) Stake(accountID string, amount float64) (StakeResult, error) {
	if !domain.ValidAmount(amount) {
		return StakeResult{}, domain.ErrInvalidAmount
	}

	var res StakeResult
	err := s.ledger.WithAccounts([]string{accountID}, func(tx *sqlite.Tx) error {
		acct, err := tx.GetAccount(accountID)
		if err != nil {
			return err
		}
		if acct == nil || amount > acct.Balance {
			have := 0.0
			if acct != nil {
				have = acct.Balance
			}
			return fmt.Errorf("%w: have %.4f, need %.4f", domain.ErrInsufficientFunds, have, amount)
		}

		start := acct.StakeStart
		if start == nil {
			t := s.now()
			start = &t
			res.FirstStake = true
		}
		res.Balance = acct.Balance - amount
		res.Staked = acct.StakedAmount + amount
		if err := tx.SetStake(accountID, res.Balance, res.Staked, start); err != nil {
			return err
		}
		return s.ledger.Record(tx, accountID, domain.TxStake, amount, "", "")
	})
	if err != nil {
		return StakeResult{}, err
	}
	return res, nil
}

// UnstakeResult reports what an unstake returned and charged.
type UnstakeResult struct {
	Principal float64 `json:"principal"`
	Yield     float64 `json:"yield"`
	ExitFee   float64 `json:"exit_fee"`
	Balance   float64 `json:"balance"`
	Staked    float64 `json:"staked"`
}

// Unstake withdraws amount of staked principal. Yield accrues linearly on
// the withdrawn amount since the stake clock started; the exit fee comes out
// of principal and lands in the treasury. Yield is minted, the fee is not
// burned, so the round trip conserves supply minus nothing.
func (s *Service) Unstake(accountID string, amount float64) (UnstakeResult, error) {
	if !domain.ValidAmount(amount) {
		return UnstakeResult{}, domain.ErrInvalidAmount
	}

	var res UnstakeResult
	err := s.ledger.WithAccounts([]string{accountID, domain.TreasuryAccount}, func(tx *sqlite.Tx) error {
		acct, err := tx.GetAccount(accountID)
		if err != nil {
			return err
		}
		if acct == nil || amount > acct.StakedAmount {
			have := 0.0
			if acct != nil {
				have = acct.StakedAmount
			}
			return fmt.Errorf("%w: staked %.4f, need %.4f", domain.ErrInsufficientStake, have, amount)
		}

		now := s.now()
		var yield float64
		if acct.StakeStart != nil {
			elapsed := now.Sub(*acct.StakeStart).Seconds()
			if elapsed > 0 {
				yield = amount * s.config.APR * elapsed / secondsPerYear
			}
		}
		fee := amount * s.config.ExitFeeRate

		res.Principal = amount - fee
		res.Yield = yield
		res.ExitFee = fee
		res.Balance = acct.Balance + res.Principal + yield
		res.Staked = acct.StakedAmount - amount

		start := acct.StakeStart
		if res.Staked < residualStake {
			res.Staked = 0
			start = nil
		}
		if err := tx.SetStake(accountID, res.Balance, res.Staked, start); err != nil {
			return err
		}

		if err := tx.EnsureAccount(domain.TreasuryAccount); err != nil {
			return err
		}
		treasury, err := tx.GetAccount(domain.TreasuryAccount)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(domain.TreasuryAccount, treasury.Balance+fee); err != nil {
			return err
		}

		if yield > 0 {
			if err := tx.AddStateValue(sqlite.StateTotalMinted, yield); err != nil {
				return err
			}
		}

		note := fmt.Sprintf("yield %.6f, exit fee %.6f", yield, fee)
		return s.ledger.Record(tx, accountID, domain.TxUnstake, amount, domain.TreasuryAccount, note)
	})
	if err != nil {
		return UnstakeResult{}, err
	}
	return res, nil
}
