package knowledge

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Compile-time check.
var _ Source = (*Cache)(nil)

// DefaultCacheTTL is used when NewCache is given a non-positive TTL.
const DefaultCacheTTL = time.Hour

// Cache wraps a Source with a per-domain TTL cache. Concurrent misses for
// the same domain share one backend read. Errors are not cached.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	snippets []Snippet
	expires  time.Time
}

// NewCache returns a Cache in front of src.
func NewCache(src Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Snippets returns the cached snippets for domain, reading through to the
// source on a miss or after expiry. Callers get their own copy.
func (c *Cache) Snippets(ctx context.Context, domain string) ([]Snippet, error) {
	c.mu.RLock()
	e, ok := c.entries[domain]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		return cloneSnippets(e.snippets), nil
	}

	v, err, _ := c.group.Do(domain, func() (any, error) {
		// The shared read must outlive any single caller's cancellation.
		snippets, err := c.src.Snippets(context.WithoutCancel(ctx), domain)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[domain] = cacheEntry{snippets: snippets, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return snippets, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSnippets(v.([]Snippet)), nil
}

// Invalidate drops every cached entry, e.g. after reseeding.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of cached domains, including expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneSnippets(in []Snippet) []Snippet {
	if in == nil {
		return nil
	}
	out := make([]Snippet, len(in))
	copy(out, in)
	return out
}
