package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stockdash/internal/api"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ SnapshotStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS suggestions (
	position   INTEGER NOT NULL,
	ticker     TEXT    NOT NULL,
	suggestion TEXT    NOT NULL,
	score      REAL    NOT NULL,
	breakdown  TEXT    NOT NULL,
	weights    TEXT    NOT NULL,
	PRIMARY KEY (position)
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore implements SnapshotStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the stored snapshot with snap inside one transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM suggestions`); err != nil {
		return err
	}
	for i, a := range snap.Analyses {
		breakdown, err := json.Marshal(a.Breakdown)
		if err != nil {
			return fmt.Errorf("encoding breakdown for %s: %w", a.Ticker, err)
		}
		weights, err := json.Marshal(a.Weights)
		if err != nil {
			return fmt.Errorf("encoding weights for %s: %w", a.Ticker, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO suggestions (position, ticker, suggestion, score, breakdown, weights)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			i, a.Ticker, string(a.FinalSuggestion), a.TotalScore, string(breakdown), string(weights))
		if err != nil {
			return fmt.Errorf("inserting %s: %w", a.Ticker, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('last_fetch', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		snap.LastFetch.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSnapshot returns the stored snapshot in its saved order. ok is false
// when no snapshot has ever been saved.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (Snapshot, bool, error) {
	var snap Snapshot

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'last_fetch'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	snap.LastFetch, err = time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("parsing last_fetch %q: %w", raw, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, suggestion, score, breakdown, weights
		 FROM suggestions ORDER BY position`)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var a api.AnalysisData
		var suggestion, breakdown, weights string
		if err := rows.Scan(&a.Ticker, &suggestion, &a.TotalScore, &breakdown, &weights); err != nil {
			return Snapshot{}, false, err
		}
		a.FinalSuggestion = api.Suggestion(suggestion)
		if err := json.Unmarshal([]byte(breakdown), &a.Breakdown); err != nil {
			return Snapshot{}, false, fmt.Errorf("decoding breakdown for %s: %w", a.Ticker, err)
		}
		if err := json.Unmarshal([]byte(weights), &a.Weights); err != nil {
			return Snapshot{}, false, fmt.Errorf("decoding weights for %s: %w", a.Ticker, err)
		}
		snap.Analyses = append(snap.Analyses, a)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}
