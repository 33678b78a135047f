package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// FragmentRecord is the persisted form of a memory fragment.
type FragmentRecord struct {
	ID           string
	Content      string
	Tier         string
	Status       string
	Language     string
	Source       string
	DocID        string
	CreatedAt    int64
	TTLMs        int64
	ExpiresAt    int64
	WilsonScore  float64
	Confidence   float64
	UseCount     int
	SuccessCount int
	Supersedes   string
	SupersededBy string
	OriginalID   string
	Extra        map[string]any
	Seq          int64
}

// SaveFragment inserts or replaces a fragment row.
func (db *DB) SaveFragment(f *FragmentRecord) error {
	var extra any
	if len(f.Extra) > 0 {
		buf, err := json.Marshal(f.Extra)
		if err != nil {
			return fmt.Errorf("marshal extra: %w", err)
		}
		extra = string(buf)
	}

	_, err := db.Exec(`
		INSERT INTO fragments (id, content, tier, status, language, source, doc_id,
			created_at, ttl_ms, expires_at,
			wilson_score, confidence, use_count, success_count,
			supersedes, superseded_by, original_id, extra, seq)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			tier = excluded.tier,
			status = excluded.status,
			language = excluded.language,
			source = excluded.source,
			doc_id = excluded.doc_id,
			created_at = excluded.created_at,
			ttl_ms = excluded.ttl_ms,
			expires_at = excluded.expires_at,
			wilson_score = excluded.wilson_score,
			confidence = excluded.confidence,
			use_count = excluded.use_count,
			success_count = excluded.success_count,
			supersedes = excluded.supersedes,
			superseded_by = excluded.superseded_by,
			original_id = excluded.original_id,
			extra = excluded.extra,
			seq = excluded.seq
	`, f.ID, f.Content, f.Tier, f.Status, f.Language, f.Source, f.DocID,
		f.CreatedAt, f.TTLMs, f.ExpiresAt,
		f.WilsonScore, f.Confidence, f.UseCount, f.SuccessCount,
		f.Supersedes, f.SupersededBy, f.OriginalID, extra, f.Seq)
	if err != nil {
		return fmt.Errorf("save fragment: %w", err)
	}
	return nil
}

// GetFragment returns a fragment by id, or nil if not found.
func (db *DB) GetFragment(id string) (*FragmentRecord, error) {
	row := db.QueryRow(`
		SELECT id, content, tier, status,
			COALESCE(language, ''), COALESCE(source, ''), COALESCE(doc_id, ''),
			created_at, ttl_ms, expires_at,
			wilson_score, confidence, use_count, success_count,
			COALESCE(supersedes, ''), COALESCE(superseded_by, ''), COALESCE(original_id, ''),
			COALESCE(extra, ''), seq
		FROM fragments WHERE id = ?
	`, id)
	f, err := scanFragment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fragment: %w", err)
	}
	return f, nil
}

// AllFragments returns every fragment row in insertion order.
func (db *DB) AllFragments() ([]*FragmentRecord, error) {
	rows, err := db.Query(`
		SELECT id, content, tier, status,
			COALESCE(language, ''), COALESCE(source, ''), COALESCE(doc_id, ''),
			created_at, ttl_ms, expires_at,
			wilson_score, confidence, use_count, success_count,
			COALESCE(supersedes, ''), COALESCE(superseded_by, ''), COALESCE(original_id, ''),
			COALESCE(extra, ''), seq
		FROM fragments ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("all fragments: %w", err)
	}
	defer rows.Close()

	var records []*FragmentRecord
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		records = append(records, f)
	}
	return records, rows.Err()
}

// DeleteFragment removes a fragment row. The vector row cascades.
func (db *DB) DeleteFragment(id string) error {
	if _, err := db.Exec("DELETE FROM fragments WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete fragment: %w", err)
	}
	return nil
}

// CountFragments returns the number of persisted fragments.
func (db *DB) CountFragments() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM fragments").Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFragment(row rowScanner) (*FragmentRecord, error) {
	var f FragmentRecord
	var extra string
	err := row.Scan(&f.ID, &f.Content, &f.Tier, &f.Status,
		&f.Language, &f.Source, &f.DocID,
		&f.CreatedAt, &f.TTLMs, &f.ExpiresAt,
		&f.WilsonScore, &f.Confidence, &f.UseCount, &f.SuccessCount,
		&f.Supersedes, &f.SupersededBy, &f.OriginalID,
		&extra, &f.Seq)
	if err != nil {
		return nil, err
	}
	if extra != "" {
		if err := json.Unmarshal([]byte(extra), &f.Extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra: %w", err)
		}
	}
	return &f, nil
}
