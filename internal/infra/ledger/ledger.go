// Package ledger applies atomic balance mutations against the account store
// and appends an immutable transaction record for every one of them.
//
// Concurrency contract: a single logical writer per account. Every
// read-modify-write runs under that account's mutex, and transfers acquire
// both account mutexes in lexicographic order so two opposing transfers can
// never deadlock. The SQLite transaction underneath guarantees the
// debit+credit pair commits as one unit.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config controls transfer economics.
type Config struct {
	// BurnRate is the fraction of every transfer destroyed (0.01 = 1%).
	// Sovereign-tier senders transfer at rate 0.
	BurnRate float64

	// MaxTransfer caps a single transfer. 0 disables the cap.
	MaxTransfer float64
}

// DefaultConfig returns the economy defaults.
func DefaultConfig() Config {
	return Config{
		BurnRate:    0.01,
		MaxTransfer: 1000,
	}
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

// BurnSink receives the burned amount of a transfer inside the same store
// transaction, so reserve backing and gravity-well capture commit atomically
// with the transfer itself.
type BurnSink func(tx *sqlite.Tx, burned float64) error

// Ledger is the single mutation path for account balances.
type Ledger struct {
	db     *sqlite.DB
	config Config

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	sinks []BurnSink

	// Injectable clock for testing.
	now func() time.Time
}

// New creates a ledger over the given store.
func New(db *sqlite.DB, cfg Config) *Ledger {
	return &Ledger{
		db:     db,
		config: cfg,
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// OnBurn registers a sink invoked with every burned transfer fee.
func (l *Ledger) OnBurn(sink BurnSink) {
	l.sinks = append(l.sinks, sink)
}

// ─── Account locking ────────────────────────────────────────────────────────

// lockFor returns the mutex guarding one account, creating it on first use.
// Account mutexes are never removed; accounts are never hard-deleted.
func (l *Ledger) lockFor(id string) *sync.Mutex {
	l.lockMu.Lock()
	defer l.lockMu.Unlock()
	mu, ok := l.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[id] = mu
	}
	return mu
}

// WithAccounts runs fn inside a store transaction while holding the mutex of
// every named account. Lock order is lexicographic regardless of argument
// order. Subsystems that read-modify-write balances (staking, governance,
// gravity well) go through here so the scheduler obeys the same atomicity
// contract as user commands.
func (l *Ledger) WithAccounts(ids []string, fn func(tx *sqlite.Tx) error) error {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			sorted = append(sorted, id)
		}
	}
	sort.Strings(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		mu := l.lockFor(id)
		mu.Lock()
		held = append(held, mu)
	}
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}()

	return l.db.WithTx(fn)
}

// ─── Operations ─────────────────────────────────────────────────────────────

// Credit mints amount onto an account, creating it if absent.
// There is no error path beyond an invalid amount.
func (l *Ledger) Credit(accountID string, amount float64, note string) (float64, error) {
	return l.CreditAs(accountID, amount, domain.TxCredit, note)
}

// CreditAs mints amount onto an account with an explicit transaction type.
// The Gravity Well uses this to record distributions distinctly from plain
// credits. Every credit through this path counts toward totalMinted so the
// conservation invariant stays checkable.
func (l *Ledger) CreditAs(accountID string, amount float64, txType domain.TxType, note string) (float64, error) {
	if !domain.ValidAmount(amount) {
		return 0, domain.ErrInvalidAmount
	}

	var newBalance float64
	err := l.WithAccounts([]string{accountID}, func(tx *sqlite.Tx) error {
		if err := tx.EnsureAccount(accountID); err != nil {
			return err
		}
		acct, err := tx.GetAccount(accountID)
		if err != nil {
			return err
		}
		newBalance = acct.Balance + amount
		if err := tx.SetBalance(accountID, newBalance); err != nil {
			return err
		}
		if err := tx.AddStateValue(sqlite.StateTotalMinted, amount); err != nil {
			return err
		}
		return tx.InsertTransaction(l.record(accountID, txType, amount, "", note))
	})
	return newBalance, err
}

// Debit removes amount from an account's spendable balance.
// Unknown accounts are never auto-created on debit.
func (l *Ledger) Debit(accountID string, amount float64, note string) (float64, error) {
	if !domain.ValidAmount(amount) {
		return 0, domain.ErrInvalidAmount
	}

	var newBalance float64
	err := l.WithAccounts([]string{accountID}, func(tx *sqlite.Tx) error {
		acct, err := tx.GetAccount(accountID)
		if err != nil {
			return err
		}
		if acct == nil {
			return domain.ErrUnknownAccount
		}
		if amount > acct.Balance {
			return fmt.Errorf("%w: have %.4f, need %.4f", domain.ErrInsufficientFunds, acct.Balance, amount)
		}
		newBalance = acct.Balance - amount
		if err := tx.SetBalance(accountID, newBalance); err != nil {
			return err
		}
		return tx.InsertTransaction(l.record(accountID, domain.TxDebit, -amount, "", note))
	})
	return newBalance, err
}

// TransferResult reports what a transfer delivered and destroyed.
type TransferResult struct {
	NetDelivered float64 `json:"net_delivered"`
	Burned       float64 `json:"burned"`
}

// Transfer atomically moves amount from one account to another, burning the
// configured fraction on the way. The burn feeds the registered sinks
// (reserve backing, gravity-well capture) in the same store transaction.
// feeExempt waives the burn entirely (Sovereign privilege).
func (l *Ledger) Transfer(fromID, toID string, amount float64, note string, feeExempt bool) (TransferResult, error) {
	if !domain.ValidAmount(amount) {
		return TransferResult{}, domain.ErrInvalidAmount
	}
	if l.config.MaxTransfer > 0 && amount > l.config.MaxTransfer {
		return TransferResult{}, fmt.Errorf("%w: %.4f exceeds max transfer %.4f",
			domain.ErrInvalidAmount, amount, l.config.MaxTransfer)
	}
	if fromID == toID {
		return TransferResult{}, domain.ErrSelfTransfer
	}

	burned := 0.0
	if !feeExempt {
		burned = amount * l.config.BurnRate
	}
	net := amount - burned

	err := l.WithAccounts([]string{fromID, toID}, func(tx *sqlite.Tx) error {
		from, err := tx.GetAccount(fromID)
		if err != nil {
			return err
		}
		if from == nil {
			return domain.ErrUnknownAccount
		}
		if amount > from.Balance {
			return fmt.Errorf("%w: have %.4f, need %.4f", domain.ErrInsufficientFunds, from.Balance, amount)
		}

		if err := tx.SetBalance(fromID, from.Balance-amount); err != nil {
			return err
		}
		if err := tx.EnsureAccount(toID); err != nil {
			return err
		}
		to, err := tx.GetAccount(toID)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(toID, to.Balance+net); err != nil {
			return err
		}

		if burned > 0 {
			if err := tx.AddStateValue(sqlite.StateTotalBurned, burned); err != nil {
				return err
			}
			for _, sink := range l.sinks {
				if err := sink(tx, burned); err != nil {
					return err
				}
			}
		}

		// The debit+credit pair is reported as one transaction record.
		if note == "" {
			note = fmt.Sprintf("delivered %.4f, burned %.4f", net, burned)
		}
		return tx.InsertTransaction(l.record(fromID, domain.TxTransfer, amount, toID, note))
	})
	if err != nil {
		return TransferResult{}, err
	}
	return TransferResult{NetDelivered: net, Burned: burned}, nil
}

// Balance returns an account's spendable balance.
func (l *Ledger) Balance(accountID string) (float64, error) {
	acct, err := l.db.GetAccount(accountID)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, domain.ErrUnknownAccount
	}
	return acct.Balance, nil
}

// record builds an audit-trail row with a fresh ID and the ledger clock.
func (l *Ledger) record(accountID string, txType domain.TxType, amount float64, counterparty, note string) domain.Transaction {
	return domain.Transaction{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Type:           txType,
		Amount:         amount,
		CounterpartyID: counterparty,
		Note:           note,
		Timestamp:      l.now(),
	}
}

// Record appends an audit-trail row on behalf of a subsystem composing its
// own mutation inside WithAccounts.
func (l *Ledger) Record(tx *sqlite.Tx, accountID string, txType domain.TxType, amount float64, counterparty, note string) error {
	return tx.InsertTransaction(l.record(accountID, txType, amount, counterparty, note))
}
