package knowledge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource counts backend reads and can block until released.
type countingSource struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (c *countingSource) Snippets(_ context.Context, domain string) ([]Snippet, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return nil, c.err
	}
	return []Snippet{{Domain: domain, URL: "https://x.example/" + domain, Title: "T", Text: "X"}}, nil
}

func TestCache_HitAndExpiry(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	got, err := c.Snippets(ctx, "tenancy")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = c.Snippets(ctx, "tenancy")
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load(), "second read is a hit")

	now = now.Add(2 * time.Minute)
	_, err = c.Snippets(ctx, "tenancy")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load(), "expired entry is refetched")

	c.Invalidate()
	assert.Zero(t, c.Len())
}

func TestCache_ConcurrentMissesShareOneRead(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	c := NewCache(src, time.Minute)

	const n = 10
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([][]Snippet, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], _ = c.Snippets(context.Background(), "weddings")
		}(i)
	}
	started.Wait()
	// Give the goroutines time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())
	for _, r := range results {
		require.Len(t, r, 1)
		assert.Equal(t, "weddings", r[0].Domain)
	}
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("backend down")}
	c := NewCache(src, time.Minute)

	_, err := c.Snippets(context.Background(), "tenancy")
	require.Error(t, err)
	src.err = nil

	got, err := c.Snippets(context.Background(), "tenancy")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(&countingSource{}, 0)
	assert.Equal(t, DefaultCacheTTL, c.ttl)

	got, err := c.Snippets(context.Background(), "d")
	require.NoError(t, err)
	got[0].Title = "mutated"

	again, err := c.Snippets(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, "T", again[0].Title)
}
