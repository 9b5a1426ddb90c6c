// Transaction log operations. The log is append-only: rows are inserted,
// never updated or deleted.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
)

// InsertTransaction appends one audit-trail record.
func (q queries) InsertTransaction(tx domain.Transaction) error {
	var counterparty any
	if tx.CounterpartyID != "" {
		counterparty = tx.CounterpartyID
	}
	_, err := q.e.Exec(`
		INSERT INTO transactions (id, account_id, type, amount, counterparty_id, note, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.AccountID, string(tx.Type), tx.Amount, counterparty, tx.Note,
		tx.Timestamp.UTC().Format(time.RFC3339Nano))
	return err
}

// AccountTransactions returns an account's most recent records, newest first.
func (q queries) AccountTransactions(accountID string, limit int) ([]domain.Transaction, error) {
	rows, err := q.e.Query(`
		SELECT id, account_id, type, amount, counterparty_id, note, timestamp
		FROM transactions
		WHERE account_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// RecentTransactions returns the most recent records across all accounts.
func (q queries) RecentTransactions(limit int) ([]domain.Transaction, error) {
	rows, err := q.e.Query(`
		SELECT id, account_id, type, amount, counterparty_id, note, timestamp
		FROM transactions
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for rows.Next() {
		var (
			tx           domain.Transaction
			txType       string
			counterparty sql.NullString
			note         sql.NullString
			tsStr        string
		)
		if err := rows.Scan(&tx.ID, &tx.AccountID, &txType, &tx.Amount, &counterparty, &note, &tsStr); err != nil {
			return nil, err
		}
		tx.Type = domain.TxType(txType)
		tx.CounterpartyID = counterparty.String
		tx.Note = note.String
		tx.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
		result = append(result, tx)
	}
	return result, rows.Err()
}
