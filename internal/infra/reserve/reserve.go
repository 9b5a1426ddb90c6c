// Package reserve tracks the water reserve that backs the dust supply.
//
// Every burned dust unit converts into reserve liters at a fixed factor, so
// the reserve only ever grows from economic activity. Coverage is reported
// against the total circulating supply (spendable + staked).
package reserve

import (
	"fmt"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config controls the backing economics.
type Config struct {
	// LitersPerBurn converts one burned dust unit into reserve liters.
	LitersPerBurn float64

	// BackingRatio is how many dust units one liter backs.
	BackingRatio float64
}

// DefaultConfig returns the economy defaults.
func DefaultConfig() Config {
	return Config{
		LitersPerBurn: 0.001,
		BackingRatio:  1000,
	}
}

// ─── Accountant ─────────────────────────────────────────────────────────────

// Accountant maintains the reserve level. The authoritative liter count
// lives in the store, so a restart never loses backing.
type Accountant struct {
	db     *sqlite.DB
	config Config
}

// New creates a reserve accountant over the given store.
func New(db *sqlite.DB, cfg Config) *Accountant {
	return &Accountant{db: db, config: cfg}
}

// ApplyBurn converts a burned amount into reserve liters inside the caller's
// store transaction. Registered as a ledger burn sink.
func (a *Accountant) ApplyBurn(tx *sqlite.Tx, burned float64) error {
	if burned <= 0 {
		return nil
	}
	return tx.AddStateValue(sqlite.StateWaterLiters, burned*a.config.LitersPerBurn)
}

// AddReserve records an external top-up of the water reserve, such as a
// physical delivery logged by an operator.
func (a *Accountant) AddReserve(liters float64, source string) (float64, error) {
	if !domain.ValidAmount(liters) {
		return 0, fmt.Errorf("%w: %.4f liters", domain.ErrInvalidAmount, liters)
	}
	var total float64
	err := a.db.WithTx(func(tx *sqlite.Tx) error {
		if err := tx.AddStateValue(sqlite.StateWaterLiters, liters); err != nil {
			return err
		}
		var err error
		total, err = tx.StateValue(sqlite.StateWaterLiters)
		return err
	})
	return total, err
}

// Liters returns the current reserve level.
func (a *Accountant) Liters() (float64, error) {
	return a.db.StateValue(sqlite.StateWaterLiters)
}

// State returns the raw reserve pool.
func (a *Accountant) State() (domain.ReserveState, error) {
	liters, err := a.db.StateValue(sqlite.StateWaterLiters)
	if err != nil {
		return domain.ReserveState{}, err
	}
	return domain.ReserveState{WaterLiters: liters, BackingRatio: a.config.BackingRatio}, nil
}

// Status reports the reserve against the circulating supply.
func (a *Accountant) Status() (domain.ReserveStatus, error) {
	state, err := a.State()
	if err != nil {
		return domain.ReserveStatus{}, err
	}
	balance, staked, err := a.db.TotalBalances()
	if err != nil {
		return domain.ReserveStatus{}, err
	}

	supply := balance + staked

	status := domain.ReserveStatus{
		WaterLiters:  state.WaterLiters,
		BackingRatio: state.BackingRatio,
		BackedDust:   state.BackedDust(),
		TotalDust:    supply,
	}
	if supply > 0 {
		status.CoveragePercent = status.BackedDust / supply * 100
	} else {
		// An empty economy is trivially covered.
		status.CoveragePercent = 100
	}
	status.FullyBacked = status.CoveragePercent >= 100
	return status, nil
}
