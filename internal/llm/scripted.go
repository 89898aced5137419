package llm

import (
	"context"
	"sync"
)

// Step is one scripted provider reply.
type Step struct {
	Text string
	Err  error
}

// Reply is a Step that returns text.
func Reply(text string) Step { return Step{Text: text} }

// Fail is a Step that returns err.
func Fail(err error) Step { return Step{Err: err} }

// Compile-time check.
var _ Provider = (*Scripted)(nil)

// Scripted replays a fixed sequence of replies, repeating the last one once
// the script runs out. It backs tests and the CLI's offline demo mode.
type Scripted struct {
	mu      sync.Mutex
	steps   []Step
	prompts []string
}

// NewScripted returns a provider that answers with steps in order.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// Name returns "scripted".
func (s *Scripted) Name() string { return "scripted" }

// Generate returns the next scripted step.
func (s *Scripted) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if len(s.steps) == 0 {
		return "", nil
	}
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i].Text, s.steps[i].Err
}

// Calls returns how many times Generate ran.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompts returns a copy of every prompt received.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Func adapts a function to Provider.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Name returns "func".
func (f Func) Name() string { return "func" }
