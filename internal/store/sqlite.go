package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Compile-time check.
var _ Store = (*SQLiteStore)(nil)

const createResultsSQL = `
CREATE TABLE IF NOT EXISTS results (
	id TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL,
	expires_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_results_expires ON results(expires_at) WHERE expires_at IS NOT NULL;
`

// SQLiteStore implements Store with SQLite. The record is stored as a JSON
// payload; expiry lives in its own column so Purge can run in SQL.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates a SQLite database at path and creates the
// results table. The parent directory is created when missing; ":memory:"
// opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}
	if _, err := db.Exec(createResultsSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save inserts rec under a new ID.
func (s *SQLiteStore) Save(ctx context.Context, rec Record, ttl time.Duration) (string, error) {
	stamp(&rec, s.now(), ttl)

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("store: encode record: %w", err)
	}
	var expires sql.NullString
	if !rec.ExpiresAt.IsZero() {
		expires = sql.NullString{String: formatTime(rec.ExpiresAt), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO results(id, payload, created_at, expires_at) VALUES(?, ?, ?, ?)",
		rec.ID, string(payload), formatTime(rec.CreatedAt), expires,
	)
	if err != nil {
		return "", fmt.Errorf("store: insert result: %w", err)
	}
	return rec.ID, nil
}

// Get loads the record with id unless it has expired.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	var payload string
	var expires sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, expires_at FROM results WHERE id = ?", id,
	).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: query result: %w", err)
	}
	if expires.Valid && expires.String <= formatTime(s.now()) {
		return nil, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("store: decode record %s: %w", id, err)
	}
	return &rec, nil
}

// Purge deletes every expired row.
func (s *SQLiteStore) Purge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM results WHERE expires_at IS NOT NULL AND expires_at <= ?",
		formatTime(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("store: purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: purge: %w", err)
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timeLayout sorts lexically in time order, which the expiry comparisons
// in SQL rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
