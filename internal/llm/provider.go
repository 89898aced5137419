// Package llm adapts language-model SDKs to a single prompt-in, text-out
// interface and classifies their failures.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
)

// Provider generates text for a prompt. Implementations return a *Error for
// every provider-side failure, the context's error when ctx ends first, and
// an empty string (not an error) when the model produced no text.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options tune a single provider instance.
type Options struct {
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration // per HTTP request, 0 leaves the SDK default
	BaseURL     string        // overrides the SDK endpoint; used by tests
}

// New builds the provider named in cfg. A missing API key yields
// ErrNoCredentials so the caller can report it at request time.
func New(ctx context.Context, cfg config.LLM) (Provider, error) {
	opts := Options{
		Model:       cfg.Model,
		APIKey:      strings.TrimSpace(cfg.APIKey),
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
	if opts.APIKey == "" {
		return nil, ErrNoCredentials
	}

	switch cfg.Provider {
	case "gemini", "":
		return NewGemini(ctx, opts)
	case "openai":
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
