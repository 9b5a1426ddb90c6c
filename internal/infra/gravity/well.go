// Package gravity implements the Gravity Well, the passive redistribution
// mechanism. A fraction of every transfer burn falls into the well; on a
// fixed cadence the accumulated pool is paid out to accounts below the
// poverty threshold in proportion to how far below it they sit.
package gravity

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/ledger"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config controls capture and payout behavior.
type Config struct {
	// CaptureFraction is the share of every burn that falls into the well.
	CaptureFraction float64

	// Threshold is the balance below which an account qualifies for payouts.
	Threshold float64

	// Interval is the minimum time between distribution rounds.
	Interval time.Duration

	// MinDistribution is the smallest pool worth paying out at all.
	MinDistribution float64

	// MinPerRecipient drops shares too small to matter; the well keeps them.
	MinPerRecipient float64
}

// DefaultConfig returns the economy defaults.
func DefaultConfig() Config {
	return Config{
		CaptureFraction: 0.01,
		Threshold:       100,
		Interval:        time.Hour,
		MinDistribution: 1,
		MinPerRecipient: 0.01,
	}
}

// ─── Well ───────────────────────────────────────────────────────────────────

// Well accumulates capture fees and runs distribution rounds. All state
// (pool level, last run) is persisted in the store; the Well itself holds
// no authoritative memory.
type Well struct {
	db     *sqlite.DB
	ledger *ledger.Ledger
	config Config
	log    zerolog.Logger

	// Serializes distribution rounds.
	mu sync.Mutex
}

// New creates a well over the given store and ledger.
func New(db *sqlite.DB, l *ledger.Ledger, cfg Config, log zerolog.Logger) *Well {
	return &Well{db: db, ledger: l, config: cfg, log: log.With().Str("component", "gravity").Logger()}
}

// CaptureFee diverts a slice of a burn into the well, inside the caller's
// store transaction. Registered as a ledger burn sink.
func (w *Well) CaptureFee(tx *sqlite.Tx, burned float64) error {
	if burned <= 0 {
		return nil
	}
	return tx.AddStateValue(sqlite.StateGravityFees, burned*w.config.CaptureFraction)
}

// Distribute runs one distribution round. With force false the round is
// skipped unless the configured interval has elapsed since the last one.
// An empty Distribution with a nil error means the round was skipped or had
// nothing to pay.
//
// Each recipient is credited in its own account-locked store transaction, so
// one failed credit never voids the others. The pool is decremented
// per-credit in the same transaction: the well can never pay out more than
// it holds, even across a crash mid-round.
func (w *Well) Distribute(now time.Time, force bool) (domain.Distribution, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var dist domain.Distribution

	lastUnix, err := w.db.StateValue(sqlite.StateGravityLastRun)
	if err != nil {
		return dist, err
	}
	if !force && lastUnix > 0 {
		if since := now.Sub(time.Unix(int64(lastUnix), 0)); since < w.config.Interval {
			return dist, nil
		}
	}

	pool, err := w.db.StateValue(sqlite.StateGravityFees)
	if err != nil {
		return dist, err
	}
	if pool < w.config.MinDistribution {
		return dist, nil
	}

	recipients, err := w.db.AccountsBelow(w.config.Threshold)
	if err != nil {
		return dist, err
	}
	if len(recipients) == 0 {
		return dist, nil
	}

	var totalDeficit float64
	for _, acct := range recipients {
		totalDeficit += w.config.Threshold - acct.Balance
	}
	if totalDeficit <= 0 {
		return dist, nil
	}

	// The interval clock only advances when a round actually evaluates
	// recipients. A round with fees but nobody qualifying leaves the clock
	// alone so the next attempt is not pushed out a full interval.
	if err := w.db.SetStateValue(sqlite.StateGravityLastRun, float64(now.Unix())); err != nil {
		return dist, err
	}

	remaining := pool
	for _, acct := range recipients {
		deficit := w.config.Threshold - acct.Balance
		share := pool * deficit / totalDeficit
		if share > remaining {
			share = remaining
		}
		if share < w.config.MinPerRecipient {
			continue
		}

		if err := w.credit(acct.ID, share, now); err != nil {
			w.log.Error().Err(err).Str("account", acct.ID).Float64("share", share).
				Msg("distribution credit failed, skipping recipient")
			continue
		}
		remaining -= share
		dist.Recipients = append(dist.Recipients, domain.GravityRecipient{
			AccountID: acct.ID,
			Amount:    share,
			Deficit:   deficit,
		})
		dist.TotalDistributed += share
	}

	if dist.TotalDistributed > 0 {
		w.log.Info().Int("recipients", len(dist.Recipients)).
			Float64("distributed", dist.TotalDistributed).
			Float64("retained", remaining).
			Msg("distribution round complete")
	}
	return dist, nil
}

// credit pays one recipient: balance bump, pool decrement, mint accounting
// and audit record commit as one unit under the account's lock.
func (w *Well) credit(accountID string, share float64, now time.Time) error {
	return w.ledger.WithAccounts([]string{accountID}, func(tx *sqlite.Tx) error {
		acct, err := tx.GetAccount(accountID)
		if err != nil {
			return err
		}
		if acct == nil {
			return domain.ErrUnknownAccount
		}
		if err := tx.SetBalance(accountID, acct.Balance+share); err != nil {
			return err
		}
		if err := tx.AddStateValue(sqlite.StateGravityFees, -share); err != nil {
			return err
		}
		if err := tx.AddStateValue(sqlite.StateTotalMinted, share); err != nil {
			return err
		}
		note := fmt.Sprintf("gravity well payout at %s", now.UTC().Format(time.RFC3339))
		return w.ledger.Record(tx, accountID, domain.TxGravity, share, "", note)
	})
}

// ─── Reporting ──────────────────────────────────────────────────────────────

// Stats is the reporting shape for well state.
type Stats struct {
	AccumulatedFees   float64   `json:"accumulated_fees"`
	Threshold         float64   `json:"threshold"`
	QualifyingCount   int       `json:"qualifying_count"`
	LastDistribution  time.Time `json:"last_distribution,omitzero"`
	NextEligible      time.Time `json:"next_eligible,omitzero"`
	IntervalSeconds   float64   `json:"interval_seconds"`
	MinDistribution   float64   `json:"min_distribution"`
	ReadyToDistribute bool      `json:"ready_to_distribute"`
}

// State returns the persisted accumulator.
func (w *Well) State() (domain.GravityWellState, error) {
	pool, err := w.db.StateValue(sqlite.StateGravityFees)
	if err != nil {
		return domain.GravityWellState{}, err
	}
	lastUnix, err := w.db.StateValue(sqlite.StateGravityLastRun)
	if err != nil {
		return domain.GravityWellState{}, err
	}
	state := domain.GravityWellState{AccumulatedFees: pool}
	if lastUnix > 0 {
		state.LastDistribution = time.Unix(int64(lastUnix), 0).UTC()
	}
	return state, nil
}

// Stats reports the current well state.
func (w *Well) Stats(now time.Time) (Stats, error) {
	state, err := w.State()
	if err != nil {
		return Stats{}, err
	}
	recipients, err := w.db.AccountsBelow(w.config.Threshold)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{
		AccumulatedFees: state.AccumulatedFees,
		Threshold:       w.config.Threshold,
		QualifyingCount: len(recipients),
		IntervalSeconds: w.config.Interval.Seconds(),
		MinDistribution: w.config.MinDistribution,
	}
	if !state.LastDistribution.IsZero() {
		s.LastDistribution = state.LastDistribution
		s.NextEligible = state.LastDistribution.Add(w.config.Interval)
	}
	s.ReadyToDistribute = state.AccumulatedFees >= w.config.MinDistribution &&
		(state.LastDistribution.IsZero() || !now.Before(s.NextEligible))
	return s, nil
}
