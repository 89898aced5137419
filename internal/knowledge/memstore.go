package knowledge

import (
	"context"
	"sync"
)

// Compile-time check.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	order    []string // domain tags in creation order
	keywords map[string][]string
	snippets map[string][]Snippet // key: domain tag
	urls     map[string]bool      // key: "tag|url"
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		keywords: make(map[string][]string),
		snippets: make(map[string][]Snippet),
		urls:     make(map[string]bool),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddDomain stores the domain's keywords.
func (m *MemStore) AddDomain(_ context.Context, d Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureDomain(d.Tag)
	m.keywords[d.Tag] = append([]string(nil), d.Keywords...)
	return nil
}

// AddSnippet appends s to its domain unless the URL is already filed there.
func (m *MemStore) AddSnippet(_ context.Context, s Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureDomain(s.Domain)
	key := s.Domain + "|" + s.URL
	if m.urls[key] {
		return nil
	}
	m.urls[key] = true
	m.snippets[s.Domain] = append(m.snippets[s.Domain], s)
	return nil
}

func (m *MemStore) ensureDomain(tag string) {
	if _, ok := m.keywords[tag]; ok {
		return
	}
	m.keywords[tag] = nil
	m.order = append(m.order, tag)
}

// Snippets returns a copy of the snippets filed under domain.
func (m *MemStore) Snippets(_ context.Context, domain string) ([]Snippet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.snippets[domain]
	out := make([]Snippet, len(src))
	copy(out, src)
	return out, nil
}

// Domains returns every domain in creation order.
func (m *MemStore) Domains(_ context.Context) ([]Domain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Domain, 0, len(m.order))
	for _, tag := range m.order {
		out = append(out, Domain{Tag: tag, Keywords: append([]string(nil), m.keywords[tag]...)})
	}
	return out, nil
}

// Stats counts domains and filed snippets.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Stats{DomainCount: len(m.order), SnippetCount: len(m.urls)}, nil
}

// Close is a no-op.
func (m *MemStore) Close() error {
	return nil
}
