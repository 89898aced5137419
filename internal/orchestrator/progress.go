package orchestrator

import (
	"fmt"
	"time"
)

// Event reports one state transition of a run.
type Event struct {
	Attempt  int
	State    State
	Cause    Cause         // set for failures and scheduled retries
	Delay    time.Duration // set for RetryScheduled
	Duration time.Duration // provider call duration, set after an attempt
}

// Reporter emits run events through a buffered channel.
type Reporter struct {
	ch chan Event
}

// NewReporter creates a Reporter with a buffered channel of size 16.
func NewReporter() *Reporter {
	return &Reporter{ch: make(chan Event, 16)}
}

// Emit sends an event without blocking. If the channel is full, the event
// is dropped.
func (r *Reporter) Emit(e Event) {
	select {
	case r.ch <- e:
	default:
	}
}

// Subscribe returns a read-only channel for consuming events.
func (r *Reporter) Subscribe() <-chan Event {
	return r.ch
}

// Close closes the event channel.
func (r *Reporter) Close() {
	close(r.ch)
}

// FormatEvent formats an Event as a human-readable status line.
func FormatEvent(e Event) string {
	switch e.State {
	case Attempting:
		return fmt.Sprintf("  ● attempt %d...", e.Attempt)
	case RetryScheduled:
		if e.Delay > 0 {
			return fmt.Sprintf("  ↻ attempt %d failed (%s), retrying in %s", e.Attempt, e.Cause, e.Delay)
		}
		return fmt.Sprintf("  ↻ attempt %d failed (%s), retrying", e.Attempt, e.Cause)
	case Succeeded:
		return fmt.Sprintf("  ✓ attempt %d succeeded in %s", e.Attempt, e.Duration.Round(time.Millisecond))
	case FailedFatal, FailedExhausted:
		return fmt.Sprintf("  ✗ attempt %d failed (%s): %s", e.Attempt, e.Cause, e.State)
	default:
		return fmt.Sprintf("  ? attempt %d (%s)", e.Attempt, e.State)
	}
}
