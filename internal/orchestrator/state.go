package orchestrator

import (
	"fmt"
	"net/http"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
)

// State is a step in the generation-retry state machine.
type State int

const (
	// Attempting means a provider call is in flight.
	Attempting State = iota
	// Succeeded is terminal: a validated result is available.
	Succeeded
	// RetryScheduled means a content failure will be retried.
	RetryScheduled
	// FailedFatal is terminal: an infrastructure failure stopped the run.
	FailedFatal
	// FailedExhausted is terminal: content failures used up the budget.
	FailedExhausted
)

func (s State) String() string {
	names := [...]string{
		"attempting",
		"succeeded",
		"retry-scheduled",
		"failed-fatal",
		"failed-exhausted",
	}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == Succeeded || s == FailedFatal || s == FailedExhausted
}

// Cause names why an attempt failed.
type Cause string

const (
	CauseAuth          Cause = "auth"
	CauseQuota         Cause = "quota"
	CauseProvider      Cause = "provider"
	CauseTimeout       Cause = "timeout"
	CauseCanceled      Cause = "canceled"
	CauseEmptyResponse Cause = "empty_response"
	CauseInvalidJSON   Cause = "invalid_json"
	CauseSchema        Cause = "schema"
	CauseCitation      Cause = "citation"
	CauseSafety        Cause = "safety"
)

// Retryable reports whether a failure with this cause is a content failure
// that may be retried within the attempt budget.
func (c Cause) Retryable() bool {
	switch c {
	case CauseEmptyResponse, CauseInvalidJSON, CauseSchema, CauseCitation, CauseSafety:
		return true
	default:
		return false
	}
}

// Status is the HTTP status reported when a run ends with this cause.
func (c Cause) Status() int {
	switch c {
	case CauseQuota:
		return http.StatusTooManyRequests
	case CauseTimeout:
		return http.StatusGatewayTimeout
	case CauseInvalidJSON, CauseSchema, CauseCitation, CauseSafety:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// reason is the caller-facing description of a cause.
func (c Cause) reason() string {
	switch c {
	case CauseAuth:
		return "model provider authentication failed"
	case CauseQuota:
		return "model provider quota exceeded, try again later"
	case CauseProvider:
		return "model provider request failed"
	case CauseTimeout:
		return "the request timed out"
	case CauseCanceled:
		return "the request was canceled"
	case CauseEmptyResponse:
		return "the model returned an empty response"
	case CauseInvalidJSON:
		return "the model response was not valid JSON"
	case CauseSchema:
		return "the model response did not match the expected format"
	case CauseCitation:
		return "the model cited references that were not provided"
	case CauseSafety:
		return "the model declined to answer this request"
	default:
		return "generation failed"
	}
}

// Failure is the single best-described error a run ends with. Details holds
// sanitized structured information and never contains raw model output.
type Failure struct {
	Cause   Cause  `json:"cause"`
	Status  int    `json:"status"`
	Reason  string `json:"reason"`
	Details any    `json:"details,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("orchestrator: %s (%d): %s", f.Cause, f.Status, f.Reason)
}

// CitationDetails describes a citation mismatch.
type CitationDetails struct {
	Invalid   []int `json:"invalid_references"`
	Available int   `json:"available_references"`
}

// Outcome is the terminal result of Run. Exactly one of Result and Failure
// is set.
type Outcome struct {
	State    State
	Result   *judgment.Result
	Failure  *Failure
	Attempts int
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool {
	return o.State == Succeeded && o.Result != nil
}

// attemptResult is the folded outcome of one provider call.
type attemptResult struct {
	result  *judgment.Result
	failure *Failure
	fatal   bool
	excerpt string // raw text excerpt for debug logs only
}

func succeeded(r *judgment.Result) attemptResult {
	return attemptResult{result: r}
}

func retryable(c Cause, details any, excerpt string) attemptResult {
	return attemptResult{
		failure: &Failure{Cause: c, Status: c.Status(), Reason: c.reason(), Details: details},
		excerpt: excerpt,
	}
}

func fatal(c Cause) attemptResult {
	return attemptResult{
		failure: &Failure{Cause: c, Status: c.Status(), Reason: c.reason()},
		fatal:   true,
	}
}
