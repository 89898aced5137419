package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_EmitAndSubscribe(t *testing.T) {
	r := NewReporter()
	defer r.Close()

	ch := r.Subscribe()
	want := Event{Attempt: 1, State: RetryScheduled, Cause: CauseInvalidJSON, Delay: time.Second}
	r.Emit(want)

	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestReporter_EmitWhenFull_DoesNotBlock(t *testing.T) {
	r := NewReporter()
	defer r.Close()

	// The buffer holds 16 events; nobody is reading.
	done := make(chan struct{})
	go func() {
		for i := range 100 {
			r.Emit(Event{Attempt: i + 1, State: Attempting})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked when the channel was full")
	}
	assert.Len(t, r.Subscribe(), 16)
}

func TestReporter_Close_ChannelClosed(t *testing.T) {
	r := NewReporter()
	ch := r.Subscribe()

	r.Emit(Event{Attempt: 1, State: Succeeded})
	r.Close()

	var received []Event
	for e := range ch {
		received = append(received, e)
	}
	require.Len(t, received, 1)
	assert.Equal(t, Succeeded, received[0].State)
}

func TestFormatEvent_AllStates(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		expect string
	}{
		{"attempting", Event{Attempt: 2, State: Attempting}, "  ● attempt 2..."},
		{"retry with delay", Event{Attempt: 1, State: RetryScheduled, Cause: CauseSchema, Delay: 500 * time.Millisecond}, "  ↻ attempt 1 failed (schema), retrying in 500ms"},
		{"succeeded", Event{Attempt: 1, State: Succeeded, Duration: 1234567 * time.Microsecond}, "  ✓ attempt 1 succeeded in 1.235s"},
		{"fatal", Event{Attempt: 1, State: FailedFatal, Cause: CauseAuth}, "  ✗ attempt 1 failed (auth): failed-fatal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, FormatEvent(tt.event))
		})
	}
}
