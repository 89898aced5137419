package orchestrator

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
)

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Base: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.Delay(0))
	assert.Equal(t, 100*time.Millisecond, b.Delay(1))
	assert.Equal(t, 200*time.Millisecond, b.Delay(2))
	assert.Equal(t, 400*time.Millisecond, b.Delay(3))
	assert.Equal(t, time.Second, b.Delay(5))
	assert.Equal(t, time.Second, b.Delay(80), "no overflow")
}

func TestExponentialBackoff_JitterBounds(t *testing.T) {
	b := ExponentialBackoff{Base: time.Second, Max: 10 * time.Second, Jitter: 0.1}
	for i := 0; i < 100; i++ {
		d := b.Delay(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.Less(t, d, 1100*time.Millisecond)
	}
}

func TestConstantAndNoBackoff(t *testing.T) {
	assert.Zero(t, NoBackoff{}.Delay(3))
	assert.Equal(t, time.Second, ConstantBackoff{Interval: time.Second}.Delay(7))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.Retry{})
	assert.Equal(t, DefaultPolicy(), p)

	p = PolicyFromConfig(config.Retry{MaxAttempts: 4, CitationRetries: ptr(2), Backoff: "constant", BaseDelay: time.Second})
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, 2, p.CitationRetries)
	assert.Equal(t, ConstantBackoff{Interval: time.Second}, p.Backoff)

	p = PolicyFromConfig(config.Retry{Backoff: "exponential", BaseDelay: time.Second, MaxDelay: 4 * time.Second})
	assert.Equal(t, ExponentialBackoff{Base: time.Second, Max: 4 * time.Second, Jitter: 0.1}, p.Backoff)
}

func TestPolicyFromConfig_ZeroCitationRetriesDisables(t *testing.T) {
	p := PolicyFromConfig(config.Retry{MaxAttempts: 3, CitationRetries: ptr(0)})
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Zero(t, p.CitationRetries)
}

func ptr[T any](v T) *T { return &v }

func TestNew_NormalizesPolicy(t *testing.T) {
	o := New(nil, WithPolicy(RetryPolicy{MaxAttempts: 0, CitationRetries: -1}))
	p := o.Policy()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Zero(t, p.CitationRetries)
	assert.Equal(t, NoBackoff{}, p.Backoff)
}

func TestCauseClassification(t *testing.T) {
	tests := []struct {
		cause     Cause
		status    int
		retryable bool
	}{
		{CauseAuth, http.StatusInternalServerError, false},
		{CauseQuota, http.StatusTooManyRequests, false},
		{CauseProvider, http.StatusInternalServerError, false},
		{CauseTimeout, http.StatusGatewayTimeout, false},
		{CauseCanceled, http.StatusInternalServerError, false},
		{CauseEmptyResponse, http.StatusInternalServerError, true},
		{CauseInvalidJSON, http.StatusBadRequest, true},
		{CauseSchema, http.StatusBadRequest, true},
		{CauseCitation, http.StatusBadRequest, true},
		{CauseSafety, http.StatusBadRequest, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.cause), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.cause.Status())
			assert.Equal(t, tt.retryable, tt.cause.Retryable())
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "attempting", Attempting.String())
	assert.Equal(t, "failed-exhausted", FailedExhausted.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, Succeeded.Terminal())
	assert.False(t, RetryScheduled.Terminal())
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "  ● attempt 1...", FormatEvent(Event{Attempt: 1, State: Attempting}))
	assert.Equal(t, "  ↻ attempt 1 failed (schema), retrying",
		FormatEvent(Event{Attempt: 1, State: RetryScheduled, Cause: CauseSchema}))
	assert.Equal(t, "  ✗ attempt 2 failed (citation): failed-exhausted",
		FormatEvent(Event{Attempt: 2, State: FailedExhausted, Cause: CauseCitation}))
}
