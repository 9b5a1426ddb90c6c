// Package sqlite is the single durable store for the dust economy.
// Accounts, the append-only transaction log, proposals, votes, and the
// reserve/gravity-well accumulators all live in one SQLite database so a
// multi-row mutation commits (or rolls back) as one unit.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO
)

// ─── Schema ─────────────────────────────────────────────────────────────────

// migrations returns the schema statements. Each string is a single SQL
// statement (SQLite executes one at a time).
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id               TEXT PRIMARY KEY,
			balance          REAL NOT NULL DEFAULT 0,
			staked_amount    REAL NOT NULL DEFAULT 0,
			stake_start      INTEGER,
			reputation_score INTEGER NOT NULL DEFAULT 0,
			created_at       TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id              TEXT PRIMARY KEY,
			account_id      TEXT NOT NULL,
			type            TEXT NOT NULL,
			amount          REAL NOT NULL,
			counterparty_id TEXT,
			note            TEXT,
			timestamp       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_account ON transactions(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_type ON transactions(type)`,

		`CREATE TABLE IF NOT EXISTS proposals (
			id             TEXT PRIMARY KEY,
			author_id      TEXT NOT NULL,
			kind           TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			funding_amount REAL NOT NULL DEFAULT 0,
			yes_weight     REAL NOT NULL DEFAULT 0,
			no_weight      REAL NOT NULL DEFAULT 0,
			status         TEXT NOT NULL DEFAULT 'active',
			created_at     INTEGER NOT NULL,
			expires_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(status)`,

		`CREATE TABLE IF NOT EXISTS votes (
			proposal_id TEXT NOT NULL,
			voter_id    TEXT NOT NULL,
			choice      TEXT NOT NULL,
			weight      REAL NOT NULL,
			voted_at    INTEGER NOT NULL,
			PRIMARY KEY (proposal_id, voter_id)
		)`,

		// Reserve, gravity-well and mint/burn accumulators as a
		// key-value row set. Single writer, read at boot.
		`CREATE TABLE IF NOT EXISTS economy_state (
			key   TEXT PRIMARY KEY,
			value REAL NOT NULL DEFAULT 0
		)`,
	}
}

// State keys for the economy_state table.
const (
	StateWaterLiters    = "water_liters"
	StateTotalMinted    = "total_minted"
	StateTotalBurned    = "total_burned"
	StateGravityFees    = "gravity_accumulated_fees"
	StateGravityLastRun = "gravity_last_distribution"
)

// ─── DB ─────────────────────────────────────────────────────────────────────

// execer is satisfied by both *sql.DB and *sql.Tx, so every query method
// works inside and outside an explicit transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

// queries holds every row-level operation. It is embedded in DB and Tx.
type queries struct {
	e execer
}

// DB is the open database handle.
type DB struct {
	queries
	sqldb *sql.DB
}

// Tx is an in-flight transaction with the full query method set.
type Tx struct {
	queries
}

// Open opens (creating if needed) the database at path and applies the
// schema. Transactions start immediate so a writer takes the write lock up
// front and queues under busy_timeout instead of failing a deferred snapshot
// upgrade with SQLITE_BUSY mid-transaction.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{queries: queries{e: sqldb}, sqldb: sqldb}
	if err := db.migrate(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.sqldb.Close()
}

func (d *DB) migrate() error {
	for _, stmt := range migrations() {
		if _, err := d.sqldb.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// WithTx runs fn inside a transaction. A non-nil error (or panic) rolls the
// whole transaction back, so no half-applied state is ever visible.
func (d *DB) WithTx(fn func(*Tx) error) error {
	sqltx, err := d.sqldb.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			sqltx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{queries: queries{e: sqltx}}); err != nil {
		sqltx.Rollback()
		return err
	}
	return sqltx.Commit()
}
