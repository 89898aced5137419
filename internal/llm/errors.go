package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a provider failure.
type Kind string

const (
	// KindAuth covers missing, invalid or unauthorised credentials.
	KindAuth Kind = "auth"
	// KindQuota covers rate limiting and exhausted quota.
	KindQuota Kind = "quota"
	// KindSafety means the provider declined to generate for policy reasons.
	KindSafety Kind = "safety"
	// KindTransport covers network failures before a response arrived.
	KindTransport Kind = "transport"
	// KindServer covers 5xx responses from the provider.
	KindServer Kind = "server"
	// KindUnknown is anything the classifier could not place.
	KindUnknown Kind = "unknown"
)

// ErrNoCredentials is returned when a provider is requested without an API key.
var ErrNoCredentials = &Error{Kind: KindAuth, Message: "no API key configured for the model provider"}

// Error is a classified provider failure.
type Error struct {
	Kind       Kind
	StatusCode int    // provider HTTP status, 0 when unknown
	Message    string // safe to show to callers
	Err        error  // underlying SDK error, never shown to callers
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind and Message, so errors.Is
// works against ErrNoCredentials.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// KindOf returns the Kind of err, or KindUnknown when err is not classified.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a classified error of kind k.
func IsKind(err error, k Kind) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == k
}

// FromStatus classifies an HTTP status returned by a provider.
func FromStatus(code int, msg string, err error) *Error {
	kind := KindUnknown
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = KindAuth
	case code == http.StatusTooManyRequests:
		kind = KindQuota
	case code >= 500:
		kind = KindServer
	case code == http.StatusBadRequest && looksLikeBadKey(msg):
		// Gemini answers 400 INVALID_ARGUMENT for malformed keys.
		kind = KindAuth
	}
	return &Error{Kind: kind, StatusCode: code, Message: msg, Err: err}
}

// Classify wraps an unclassified error. Context errors are returned
// unchanged so callers can tell cancellation apart from provider failures.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{Kind: KindTransport, Message: "model provider unreachable", Err: err}
}

func looksLikeBadKey(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "api key") || strings.Contains(lower, "api_key")
}
