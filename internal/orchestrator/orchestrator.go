// Package orchestrator runs a bounded number of generation attempts against
// a language model until one yields a schema-valid, citation-valid result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/llm"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/logging"
)

// excerptLen bounds raw model text written to debug logs.
const excerptLen = 200

// Request is one judgment to generate.
type Request struct {
	Prompt string
	// SnippetCount is the number of numbered references in Prompt; it
	// bounds the citation markers the model may use.
	SnippetCount int
}

// Orchestrator drives the generation-retry state machine. It is safe for
// concurrent use; each Run keeps its own counters.
type Orchestrator struct {
	provider llm.Provider
	policy   RetryPolicy
	log      *zap.Logger
	reporter *Reporter
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy sets the retry policy.
func WithPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = logging.OrNop(l) }
}

// WithReporter emits every transition to r.
func WithReporter(r *Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// New creates an Orchestrator. A nil provider is allowed; every run then
// fails with an auth failure.
func New(provider llm.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		policy:   DefaultPolicy(),
		log:      zap.NewNop(),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.policy = o.policy.normalized()
	return o
}

// HasProvider reports whether a model provider is configured.
func (o *Orchestrator) HasProvider() bool { return o.provider != nil }

// Policy returns the effective retry policy.
func (o *Orchestrator) Policy() RetryPolicy { return o.policy }

// Run issues req.Prompt until it produces a valid result, a fatal failure
// occurs, or the budget is exhausted. Retries are sequential and re-issue
// the identical prompt.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	var attempts, citationFailures int
	log := o.log.With(zap.Int("snippets", req.SnippetCount))

	if o.provider == nil {
		f := fatal(CauseAuth).failure
		f.Reason = "no model provider is configured"
		log.Error("generation failed", zap.String("cause", string(f.Cause)))
		return Outcome{State: FailedFatal, Failure: f}
	}

	for {
		if err := ctx.Err(); err != nil {
			return o.finish(log, attempts, contextFailure(err))
		}

		attempts++
		o.emit(Event{Attempt: attempts, State: Attempting})

		start := time.Now()
		res := o.attempt(ctx, req)
		elapsed := time.Since(start)

		if res.failure == nil {
			log.Info("generation succeeded",
				zap.Int("attempt", attempts),
				zap.Duration("duration", elapsed),
			)
			o.emit(Event{Attempt: attempts, State: Succeeded, Duration: elapsed})
			return Outcome{State: Succeeded, Result: res.result, Attempts: attempts}
		}

		cause := res.failure.Cause
		log.Warn("generation attempt failed",
			zap.Int("attempt", attempts),
			zap.String("cause", string(cause)),
			zap.Duration("duration", elapsed),
		)
		if res.excerpt != "" {
			log.Debug("rejected model output",
				zap.Int("attempt", attempts),
				zap.String("excerpt", logging.Excerpt(res.excerpt, excerptLen)),
			)
		}

		if res.fatal {
			return o.finish(log, attempts, res)
		}

		if cause == CauseCitation {
			citationFailures++
		}
		if !o.canRetry(attempts, cause, citationFailures) {
			return o.finish(log, attempts, res)
		}

		delay := o.policy.Backoff.Delay(attempts)
		log.Info("retry scheduled",
			zap.Int("attempt", attempts),
			zap.String("cause", string(cause)),
			zap.Duration("delay", delay),
		)
		o.emit(Event{Attempt: attempts, State: RetryScheduled, Cause: cause, Delay: delay, Duration: elapsed})

		if err := o.sleep(ctx, delay); err != nil {
			return o.finish(log, attempts, contextFailure(err))
		}
	}
}

// canRetry reports whether another attempt is allowed after a content
// failure with the given cause.
func (o *Orchestrator) canRetry(attempts int, cause Cause, citationFailures int) bool {
	if attempts >= o.policy.MaxAttempts {
		return false
	}
	if cause == CauseCitation && citationFailures > o.policy.CitationRetries {
		return false
	}
	return true
}

// finish converts a failed attempt into a terminal Outcome.
func (o *Orchestrator) finish(log *zap.Logger, attempts int, res attemptResult) Outcome {
	state := FailedFatal
	f := res.failure
	if !res.fatal {
		state = FailedExhausted
		f = &Failure{
			Cause:   f.Cause,
			Status:  f.Status,
			Reason:  fmt.Sprintf("no valid judgment after %d %s: %s", attempts, plural(attempts, "attempt"), f.Reason),
			Details: f.Details,
		}
	}

	log.Error("generation failed",
		zap.Int("attempts", attempts),
		zap.String("state", state.String()),
		zap.String("cause", string(f.Cause)),
		zap.Int("status", f.Status),
	)
	o.emit(Event{Attempt: attempts, State: state, Cause: f.Cause})
	return Outcome{State: state, Failure: f, Attempts: attempts}
}

// attempt performs one provider call and folds the response through parsing,
// schema validation and citation checking.
func (o *Orchestrator) attempt(ctx context.Context, req Request) attemptResult {
	text, err := o.provider.Generate(ctx, req.Prompt)
	if err != nil {
		return classifyProviderError(ctx, err)
	}

	result, violations, err := judgment.Parse(text)
	switch {
	case errors.Is(err, judgment.ErrEmpty):
		return retryable(CauseEmptyResponse, nil, "")
	case err != nil:
		return retryable(CauseInvalidJSON, nil, text)
	case len(violations) > 0:
		return retryable(CauseSchema, violations, text)
	}

	report := judgment.CheckCitations(result.CitableText(), req.SnippetCount)
	if !report.Valid {
		return retryable(CauseCitation, CitationDetails{
			Invalid:   report.Invalid,
			Available: req.SnippetCount,
		}, text)
	}
	return succeeded(result)
}

// classifyProviderError maps a provider error onto a cause. Only safety
// blocks are content failures; everything else is fatal.
func classifyProviderError(ctx context.Context, err error) attemptResult {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return contextFailure(ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contextFailure(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fatal(CauseTimeout)
	}

	switch llm.KindOf(err) {
	case llm.KindSafety:
		return retryable(CauseSafety, nil, "")
	case llm.KindAuth:
		res := fatal(CauseAuth)
		if errors.Is(err, llm.ErrNoCredentials) {
			res.failure.Reason = llm.ErrNoCredentials.Message
		}
		return res
	case llm.KindQuota:
		return fatal(CauseQuota)
	default:
		return fatal(CauseProvider)
	}
}

func contextFailure(err error) attemptResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return fatal(CauseTimeout)
	}
	return fatal(CauseCanceled)
}

func (o *Orchestrator) emit(e Event) {
	if o.reporter != nil {
		o.reporter.Emit(e)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
