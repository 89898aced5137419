package judgment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned by Parse when the model produced no text.
var ErrEmpty = errors.New("judgment: empty response")

// Parse is the parse-then-validate pipeline for raw model output. It returns
// a non-nil error when the text is empty or is not JSON, violations when the
// JSON does not satisfy the contract, and a Result otherwise.
func Parse(raw string) (*Result, Violations, error) {
	text := StripFence(raw)
	if text == "" {
		return nil, nil, ErrEmpty
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, nil, fmt.Errorf("judgment: decode json: %w", err)
	}

	res, vs := Validate(v)
	return res, vs, nil
}

// StripFence trims whitespace and removes a surrounding Markdown code fence
// (```json ... ```), which some models add even when asked for bare JSON.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	nl := strings.Index(text, "\n")
	if nl == -1 {
		return stripInlineFence(text)
	}
	text = text[nl+1:]
	if end := strings.LastIndex(text, "```"); end != -1 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// stripInlineFence handles a fence on a single line, such as
// ```json{"a":1}```. The language tag runs up to the first brace, bracket or
// whitespace.
func stripInlineFence(text string) string {
	body := strings.TrimPrefix(text, "```")
	i := strings.IndexAny(body, "{[ \t")
	if i == -1 {
		return ""
	}
	body = strings.TrimSpace(body[i:])
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
