package store

import (
	"context"
	"sync"
	"time"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
)

// Compile-time check.
var _ Store = (*MemStore)(nil)

// MemStore is a concurrency-safe in-memory Store. Records live in a map
// keyed by ID; expired records are invisible to Get and removed by Purge.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// Save stores a deep copy of rec under a new ID.
func (s *MemStore) Save(_ context.Context, rec Record, ttl time.Duration) (string, error) {
	stamp(&rec, s.now(), ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = deepCopyRecord(&rec)
	return rec.ID, nil
}

// Get returns a deep copy of the record, which is safe to mutate without
// affecting the store.
func (s *MemStore) Get(_ context.Context, id string) (*Record, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return deepCopyRecord(r), nil
}

// Purge deletes expired records.
func (s *MemStore) Purge(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, r := range s.records {
		if r.Expired(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records, expired or not.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *MemStore) Close() error {
	return nil
}

func deepCopyRecord(src *Record) *Record {
	dst := *src
	if src.Result != nil {
		dst.Result = deepCopyResult(src.Result)
	}
	if src.Domains != nil {
		dst.Domains = append([]string(nil), src.Domains...)
	}
	if src.Snippets != nil {
		dst.Snippets = append(dst.Snippets[:0:0], src.Snippets...)
	}
	return &dst
}

func deepCopyResult(src *judgment.Result) *judgment.Result {
	dst := *src
	if src.Personas != nil {
		dst.Personas = make([]judgment.PersonaVerdict, len(src.Personas))
		for i, p := range src.Personas {
			p.KeyPoints = append([]string(nil), p.KeyPoints...)
			dst.Personas[i] = p
		}
	}
	return &dst
}
