package store

import (
	"fmt"
	"time"
)

// OutcomeRecord persists the learning counters and feedback weight
// for a fragment.
type OutcomeRecord struct {
	FragmentID string
	Positive   int
	Negative   int
	Neutral    int
	Weight     float64
	UpdatedAt  int64
}

// SaveOutcome inserts or replaces the outcome row for a fragment.
func (db *DB) SaveOutcome(o *OutcomeRecord) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outcomes (fragment_id, positive, negative, neutral, weight, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fragment_id) DO UPDATE SET
			positive = excluded.positive,
			negative = excluded.negative,
			neutral = excluded.neutral,
			weight = excluded.weight,
			updated_at = excluded.updated_at
	`, o.FragmentID, o.Positive, o.Negative, o.Neutral, o.Weight, now)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

// AllOutcomes returns every outcome row.
func (db *DB) AllOutcomes() ([]OutcomeRecord, error) {
	rows, err := db.Query(`
		SELECT fragment_id, positive, negative, neutral, weight, updated_at
		FROM outcomes
	`)
	if err != nil {
		return nil, fmt.Errorf("all outcomes: %w", err)
	}
	defer rows.Close()

	var records []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		if err := rows.Scan(&o.FragmentID, &o.Positive, &o.Negative, &o.Neutral, &o.Weight, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		records = append(records, o)
	}
	return records, rows.Err()
}

// DeleteOutcome removes the outcome row for a fragment.
func (db *DB) DeleteOutcome(fragmentID string) error {
	if _, err := db.Exec("DELETE FROM outcomes WHERE fragment_id = ?", fragmentID); err != nil {
		return fmt.Errorf("delete outcome: %w", err)
	}
	return nil
}
