package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Compile-time check.
var _ Provider = (*GeminiProvider)(nil)

// GeminiProvider implements Provider with the Google Gen AI SDK.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini API client. The client is safe for concurrent
// use and is meant to be built once per process and injected.
func NewGemini(ctx context.Context, opts Options) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		return nil, ErrNoCredentials
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	if opts.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model, temperature: opts.Temperature}, nil
}

// Name returns "gemini:<model>".
func (g *GeminiProvider) Name() string {
	return "gemini:" + g.model
}

// Generate sends the prompt as a single user turn and asks for a JSON reply.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if g.temperature > 0 {
		gc.Temperature = genai.Ptr(g.temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", classifyGemini(err)
	}

	if reason := geminiBlockReason(resp); reason != "" {
		return "", &Error{Kind: KindSafety, Message: "the model declined to answer: " + reason}
	}
	return resp.Text(), nil
}

// geminiBlockReason returns a non-empty reason when the prompt or the
// first candidate was blocked by safety filters.
func geminiBlockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		return string(pf.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	switch fr := resp.Candidates[0].FinishReason; fr {
	case genai.FinishReasonSafety, "PROHIBITED_CONTENT", "BLOCKLIST", "SPII":
		return string(fr)
	}
	return ""
}

// classifyGemini maps SDK errors onto provider error kinds.
func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return FromStatus(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return FromStatus(apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return Classify(err)
}
