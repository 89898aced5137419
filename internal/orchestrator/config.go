package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
)

// Backoff decides how long to wait before retry number attempt (1-based:
// the wait after the first failed attempt is Delay(1)).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// NoBackoff retries immediately.
type NoBackoff struct{}

func (NoBackoff) Delay(int) time.Duration { return 0 }

// ConstantBackoff waits the same interval before every retry.
type ConstantBackoff struct {
	Interval time.Duration
}

func (b ConstantBackoff) Delay(int) time.Duration { return b.Interval }

// ExponentialBackoff doubles Base on every retry up to Max, then spreads the
// result by +/- Jitter (a fraction, 0.1 = 10%).
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	delay := b.Base * time.Duration(1<<shift)
	if b.Max > 0 && (delay > b.Max || delay <= 0) {
		delay = b.Max
	}

	if j := int64(float64(delay) * b.Jitter); j > 0 {
		//nolint:gosec // G404: math/rand is fine for retry jitter
		delay += time.Duration(rand.Int64N(2*j) - j)
	}
	if delay < 0 {
		return b.Base
	}
	return delay
}

// RetryPolicy bounds a run. Every provider call, including a citation
// retry, counts against MaxAttempts; CitationRetries additionally caps how
// many of those retries may follow a citation failure.
type RetryPolicy struct {
	MaxAttempts     int
	CitationRetries int
	Backoff         Backoff
}

// DefaultPolicy is one initial try plus one retry, with a single citation
// retry and no delay.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, CitationRetries: 1, Backoff: NoBackoff{}}
}

// PolicyFromConfig converts the retry section of the service config.
func PolicyFromConfig(c config.Retry) RetryPolicy {
	p := DefaultPolicy()
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.CitationRetries != nil {
		p.CitationRetries = *c.CitationRetries
	}
	switch c.Backoff {
	case "constant":
		p.Backoff = ConstantBackoff{Interval: c.BaseDelay}
	case "exponential":
		p.Backoff = ExponentialBackoff{Base: c.BaseDelay, Max: c.MaxDelay, Jitter: 0.1}
	}
	return p
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.CitationRetries < 0 {
		p.CitationRetries = 0
	}
	if p.Backoff == nil {
		p.Backoff = NoBackoff{}
	}
	return p
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
