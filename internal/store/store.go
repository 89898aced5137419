// Package store persists validated judgments so they can be shared by ID.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/knowledge"
)

// ErrNotFound is returned by Get for unknown or expired records.
var ErrNotFound = errors.New("store: record not found")

// Record is a stored judgment together with the request that produced it.
type Record struct {
	ID        string              `json:"id"`
	Context   string              `json:"context"`
	Query     string              `json:"query"`
	Result    *judgment.Result    `json:"result"`
	Domains   []string            `json:"domains,omitempty"`
	Snippets  []knowledge.Snippet `json:"snippets,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at,omitzero"`
}

// Expired reports whether r is past its expiry at now. A zero ExpiresAt
// never expires.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists records.
// Implementations: SQLiteStore (persistent), MemStore (default and tests).
type Store interface {
	io.Closer

	// Save assigns an ID and timestamps to rec and stores it. A ttl <= 0
	// keeps the record forever.
	Save(ctx context.Context, rec Record, ttl time.Duration) (string, error)

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Purge deletes expired records and returns how many were removed.
	Purge(ctx context.Context) (int, error)
}

// NewID returns a random UUID v4 string.
func NewID() string {
	return uuid.NewString()
}

// stamp fills the fields Save owns.
func stamp(rec *Record, now time.Time, ttl time.Duration) {
	rec.ID = NewID()
	rec.CreatedAt = now.UTC()
	rec.ExpiresAt = time.Time{}
	if ttl > 0 {
		rec.ExpiresAt = rec.CreatedAt.Add(ttl)
	}
}

// validID rejects lookups that could never match a stored record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Open builds the store named in cfg.
func Open(cfg config.Store) (Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemStore(), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
