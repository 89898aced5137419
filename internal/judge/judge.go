// Package judge handles one "am I being unreasonable?" request end to end:
// input validation, reference lookup, prompt assembly, generation and
// persistence.
package judge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/knowledge"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/orchestrator"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/prompt"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/store"
)

// Input is the user's situation and question.
type Input struct {
	Context string `json:"context" validate:"required,min=10,max=4000"`
	Query   string `json:"query" validate:"required,min=5,max=4000"`
}

// Verdict is a successful judgment.
type Verdict struct {
	// ID is the stored record's ID, empty when saving failed.
	ID       string
	Result   *judgment.Result
	Domains  []string
	Snippets []knowledge.Snippet
	Attempts int
}

// Error is a failed judgment with the HTTP status it maps to.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("judge: %d: %s", e.Status, e.Message)
}

// Service runs judgments. It is safe for concurrent use.
type Service struct {
	orch     *orchestrator.Orchestrator
	supplier *knowledge.Supplier
	builder  *prompt.Builder
	store    store.Store
	ttl      time.Duration
	timeout  time.Duration
	validate *validator.Validate
	log      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSupplier sets the reference snippet supplier. Without one, prompts
// carry no references.
func WithSupplier(s *knowledge.Supplier) Option {
	return func(svc *Service) { svc.supplier = s }
}

// WithStore persists successful results for ttl.
func WithStore(st store.Store, ttl time.Duration) Option {
	return func(svc *Service) {
		svc.store = st
		svc.ttl = ttl
	}
}

// WithTimeout bounds generation for a single request.
func WithTimeout(d time.Duration) Option {
	return func(svc *Service) { svc.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.log = l
		}
	}
}

// New creates a Service around orch.
func New(orch *orchestrator.Orchestrator, opts ...Option) (*Service, error) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		return nil, fmt.Errorf("judge: %w", err)
	}
	svc := &Service{
		orch:     orch,
		builder:  builder,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Judge validates in, generates a judgment and stores it. Failures carry
// the status of the check that failed last; content failures are never
// downgraded.
func (s *Service) Judge(ctx context.Context, in Input) (*Verdict, *Error) {
	in.Context = strings.TrimSpace(in.Context)
	in.Query = strings.TrimSpace(in.Query)
	if err := s.validate.Struct(in); err != nil {
		return nil, inputError(err)
	}

	if s.orch == nil || !s.orch.HasProvider() {
		s.log.Error("judge: no model provider configured")
		return nil, &Error{Status: http.StatusInternalServerError, Message: "no model provider is configured"}
	}

	log := s.log.With(zap.String("request_id", uuid.NewString()))

	// The timeout covers reference lookup as well as generation.
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	domains, snippets := s.supplier.Gather(runCtx, in.Context+"\n"+in.Query)
	text, err := s.builder.Build(prompt.Input{Context: in.Context, Query: in.Query, Snippets: snippets})
	if err != nil {
		log.Error("judge: build prompt", zap.Error(err))
		return nil, &Error{Status: http.StatusInternalServerError, Message: "failed to prepare the request"}
	}
	log.Info("judging",
		zap.Strings("domains", domains),
		zap.Int("snippets", len(snippets)),
		zap.Int("prompt_chars", len(text)),
	)

	out := s.orch.Run(runCtx, orchestrator.Request{Prompt: text, SnippetCount: len(snippets)})
	if !out.OK() {
		f := out.Failure
		return nil, &Error{Status: f.Status, Message: f.Reason, Details: f.Details}
	}

	v := &Verdict{Result: out.Result, Domains: domains, Snippets: snippets, Attempts: out.Attempts}
	if s.store != nil {
		id, err := s.store.Save(ctx, store.Record{
			Context:  in.Context,
			Query:    in.Query,
			Result:   out.Result,
			Domains:  domains,
			Snippets: snippets,
		}, s.ttl)
		if err != nil {
			log.Warn("judge: save result", zap.Error(err))
		} else {
			v.ID = id
		}
	}
	return v, nil
}

// Result looks up a stored judgment.
func (s *Service) Result(ctx context.Context, id string) (*store.Record, *Error) {
	if s.store == nil {
		return nil, &Error{Status: http.StatusNotFound, Message: "result not found"}
	}
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &Error{Status: http.StatusNotFound, Message: "result not found"}
	}
	if err != nil {
		s.log.Error("judge: load result", zap.String("id", id), zap.Error(err))
		return nil, &Error{Status: http.StatusInternalServerError, Message: "failed to load result"}
	}
	return rec, nil
}

// inputError turns validator output into a 400 naming the first bad field.
func inputError(err error) *Error {
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return &Error{Status: http.StatusBadRequest, Message: "invalid request"}
	}
	fe := fes[0]
	field := strings.ToLower(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		msg = field + " is invalid"
	}
	return &Error{Status: http.StatusBadRequest, Message: msg}
}
