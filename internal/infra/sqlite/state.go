// Economy-state accumulators: water reserve, mint/burn totals, gravity well.
package sqlite

import "database/sql"

// StateValue reads one accumulator. Missing keys read as zero.
func (q queries) StateValue(key string) (float64, error) {
	var v float64
	err := q.e.QueryRow(`SELECT value FROM economy_state WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return v, err
}

// SetStateValue overwrites one accumulator.
func (q queries) SetStateValue(key string, value float64) error {
	_, err := q.e.Exec(`
		INSERT INTO economy_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// AddStateValue increments one accumulator, creating it at delta if absent.
func (q queries) AddStateValue(key string, delta float64) error {
	_, err := q.e.Exec(`
		INSERT INTO economy_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = value + excluded.value
	`, key, delta)
	return err
}
