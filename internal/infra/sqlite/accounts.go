// Account row operations. Balances are only mutated through these methods,
// always under the ledger's per-account locks.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
)

// EnsureAccount creates the account row if it does not exist yet.
// Lazy creation on first credit; existing rows are untouched.
func (q queries) EnsureAccount(id string) error {
	_, err := q.e.Exec(`
		INSERT OR IGNORE INTO accounts (id) VALUES (?)
	`, id)
	return err
}

// GetAccount retrieves an account. Returns (nil, nil) when no row exists;
// the caller decides whether absence is an error.
func (q queries) GetAccount(id string) (*domain.Account, error) {
	var (
		a          domain.Account
		stakeStart sql.NullInt64
		createdStr string
	)
	err := q.e.QueryRow(`
		SELECT id, balance, staked_amount, stake_start, reputation_score, created_at
		FROM accounts WHERE id = ?
	`, id).Scan(&a.ID, &a.Balance, &a.StakedAmount, &stakeStart, &a.ReputationScore, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if stakeStart.Valid {
		t := time.Unix(stakeStart.Int64, 0).UTC()
		a.StakeStart = &t
	}
	a.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdStr)
	return &a, nil
}

// SetBalance overwrites an account's spendable balance.
func (q queries) SetBalance(id string, balance float64) error {
	_, err := q.e.Exec(`UPDATE accounts SET balance = ? WHERE id = ?`, balance, id)
	return err
}

// SetStake overwrites an account's balance, staked amount and stake clock in
// one statement so the three fields never drift.
func (q queries) SetStake(id string, balance, staked float64, stakeStart *time.Time) error {
	var start any
	if stakeStart != nil {
		start = stakeStart.Unix()
	}
	_, err := q.e.Exec(`
		UPDATE accounts SET balance = ?, staked_amount = ?, stake_start = ? WHERE id = ?
	`, balance, staked, start, id)
	return err
}

// AddReputation adjusts an account's reputation score by delta.
func (q queries) AddReputation(id string, delta int64) error {
	_, err := q.e.Exec(`
		UPDATE accounts SET reputation_score = reputation_score + ? WHERE id = ?
	`, delta, id)
	return err
}

// AccountCount returns the number of user accounts. The treasury is a system
// account and does not count toward governance quorum.
func (q queries) AccountCount() (int, error) {
	var n int
	err := q.e.QueryRow(`
		SELECT COUNT(*) FROM accounts WHERE id != ?
	`, domain.TreasuryAccount).Scan(&n)
	return n, err
}

// AccountsBelow returns user accounts with balance under the threshold,
// poorest first. Used by the Gravity Well to select recipients.
func (q queries) AccountsBelow(threshold float64) ([]domain.Account, error) {
	rows, err := q.e.Query(`
		SELECT id, balance, staked_amount, reputation_score
		FROM accounts
		WHERE balance < ? AND id != ?
		ORDER BY balance ASC
	`, threshold, domain.TreasuryAccount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Balance, &a.StakedAmount, &a.ReputationScore); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// TotalBalances returns the sums of spendable and staked dust across all
// accounts (treasury included; its dust is still in circulation).
func (q queries) TotalBalances() (balance, staked float64, err error) {
	err = q.e.QueryRow(`
		SELECT COALESCE(SUM(balance), 0), COALESCE(SUM(staked_amount), 0) FROM accounts
	`).Scan(&balance, &staked)
	return
}
