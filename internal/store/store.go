// Package store persists an operational audit log of chat interactions in
// SQLite. This is diagnostics data for operators, not recallable chat
// history; the conversation memory itself stays in-process.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite access for the interaction log.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			request_id TEXT PRIMARY KEY,
			created_at TIMESTAMP,
			detected_lang TEXT,
			query_type TEXT,
			complexity TEXT,
			intercept TEXT,
			datasets_attempted TEXT,
			datasets_used TEXT,
			generation_tier TEXT,
			synthetic_data INTEGER,
			location_display TEXT,
			duration_ms INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Interaction is one audited chat request.
type Interaction struct {
	RequestID         string    `json:"request_id"`
	CreatedAt         time.Time `json:"created_at"`
	DetectedLang      string    `json:"detected_lang"`
	QueryType         string    `json:"query_type"`
	Complexity        string    `json:"complexity"`
	Intercept         string    `json:"intercept,omitempty"`
	DatasetsAttempted []string  `json:"datasets_attempted"`
	DatasetsUsed      []string  `json:"datasets_used"`
	GenerationTier    string    `json:"generation_tier"`
	SyntheticData     bool      `json:"synthetic_data"`
	LocationDisplay   string    `json:"location_display"`
	DurationMS        int64     `json:"duration_ms"`
}

// RecordInteraction inserts one audit row. Replays of the same request id
// overwrite the earlier row.
func (s *Store) RecordInteraction(ctx context.Context, in *Interaction) error {
	attempted, _ := json.Marshal(in.DatasetsAttempted)
	used, _ := json.Marshal(in.DatasetsUsed)
	synthetic := 0
	if in.SyntheticData {
		synthetic = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO interactions(
			request_id, created_at, detected_lang, query_type, complexity, intercept,
			datasets_attempted, datasets_used, generation_tier, synthetic_data,
			location_display, duration_ms)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(request_id) DO UPDATE SET
			detected_lang=excluded.detected_lang,
			query_type=excluded.query_type,
			complexity=excluded.complexity,
			intercept=excluded.intercept,
			datasets_attempted=excluded.datasets_attempted,
			datasets_used=excluded.datasets_used,
			generation_tier=excluded.generation_tier,
			synthetic_data=excluded.synthetic_data,
			location_display=excluded.location_display,
			duration_ms=excluded.duration_ms`,
		in.RequestID, in.CreatedAt, in.DetectedLang, in.QueryType, in.Complexity, in.Intercept,
		string(attempted), string(used), in.GenerationTier, synthetic,
		in.LocationDisplay, in.DurationMS)
	return err
}

// ListInteractions returns the most recent rows, newest first.
func (s *Store) ListInteractions(ctx context.Context, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT request_id, created_at, detected_lang,
			query_type, complexity, intercept, datasets_attempted, datasets_used,
			generation_tier, synthetic_data, location_display, duration_ms
		FROM interactions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var in Interaction
		var attempted, used string
		var synthetic int
		if err := rows.Scan(&in.RequestID, &in.CreatedAt, &in.DetectedLang,
			&in.QueryType, &in.Complexity, &in.Intercept, &attempted, &used,
			&in.GenerationTier, &synthetic, &in.LocationDisplay, &in.DurationMS); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(attempted), &in.DatasetsAttempted)
		_ = json.Unmarshal([]byte(used), &in.DatasetsUsed)
		in.SyntheticData = synthetic != 0
		out = append(out, in)
	}
	return out, rows.Err()
}

// CountInteractions reports the total number of audit rows.
func (s *Store) CountInteractions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n)
	return n, err
}

// Health returns err if the database is not reachable.
func (s *Store) Health(ctx context.Context) error {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}
