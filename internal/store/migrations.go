package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "fragments: tiered memory fragments",
		SQL: `
CREATE TABLE fragments (
    id             TEXT PRIMARY KEY,
    content        TEXT NOT NULL,
    tier           TEXT NOT NULL CHECK (tier IN ('working', 'history', 'patterns', 'books', 'memory_bank')),
    status         TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'tombstone')),
    language       TEXT,
    source         TEXT,
    doc_id         TEXT,

    -- Lifecycle
    created_at     INTEGER NOT NULL,
    ttl_ms         INTEGER NOT NULL DEFAULT 0,
    expires_at     INTEGER NOT NULL DEFAULT 0,

    -- Learning snapshot
    wilson_score   REAL NOT NULL DEFAULT 0.5,
    confidence     REAL NOT NULL DEFAULT 0.5,
    use_count      INTEGER NOT NULL DEFAULT 0,
    success_count  INTEGER NOT NULL DEFAULT 0,

    -- Supersession
    supersedes     TEXT,
    superseded_by  TEXT,
    original_id    TEXT,

    -- Extension metadata, JSON object
    extra          TEXT,

    seq            INTEGER NOT NULL
);

CREATE INDEX idx_fragments_tier    ON fragments(tier);
CREATE INDEX idx_fragments_status  ON fragments(status);
CREATE INDEX idx_fragments_seq     ON fragments(seq);
`,
	},
	{
		Version:     2,
		Description: "fragment_vectors: embedding vectors for similarity search",
		SQL: `
CREATE TABLE fragment_vectors (
    fragment_id TEXT PRIMARY KEY,
    embedding   BLOB NOT NULL,
    model       TEXT NOT NULL,
    dimensions  INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (fragment_id) REFERENCES fragments(id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     3,
		Description: "outcomes: retrieval outcome counters and feedback weights",
		SQL: `
CREATE TABLE outcomes (
    fragment_id TEXT PRIMARY KEY,
    positive    INTEGER NOT NULL DEFAULT 0,
    negative    INTEGER NOT NULL DEFAULT 0,
    neutral     INTEGER NOT NULL DEFAULT 0,
    weight      REAL NOT NULL DEFAULT 1.0,
    updated_at  INTEGER NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
