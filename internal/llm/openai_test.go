package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOpenAIServer serves a canned chat completion response.
func newOpenAIServer(t *testing.T, status int, body string, seen *map[string]any) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Temperature: 0.5, Timeout: 5 * time.Second})
}

func TestOpenAI_Generate(t *testing.T) {
	var req map[string]any
	p := newOpenAIServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ok\":true}"}, "finish_reason": "stop"}]
	}`, &req)

	out, err := p.Generate(context.Background(), "judge this")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "gpt-4o-mini", req["model"])
	format, _ := req["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	msgs, _ := req["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "judge this", msgs[0].(map[string]any)["content"])
}

func TestOpenAI_NoChoicesIsEmpty(t *testing.T) {
	p := newOpenAIServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil)
	out, err := p.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAI_ContentFilter(t *testing.T) {
	p := newOpenAIServer(t, http.StatusOK, `{
		"id": "x", "object": "chat.completion",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ""}, "finish_reason": "content_filter"}]
	}`, nil)
	_, err := p.Generate(context.Background(), "x")
	assert.True(t, IsKind(err, KindSafety))
}

func TestOpenAI_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"bad key", http.StatusUnauthorized, KindAuth},
		{"rate limit", http.StatusTooManyRequests, KindQuota},
		{"server", http.StatusInternalServerError, KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOpenAIServer(t, tt.status, `{"error":{"message":"nope","type":"error","code":"x"}}`, nil)
			_, err := p.Generate(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))

			var le *Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.status, le.StatusCode)
		})
	}
}

func TestOpenAI_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewOpenAI(Options{APIKey: "sk-test", BaseURL: url + "/v1"})
	_, err := p.Generate(context.Background(), "x")
	assert.True(t, IsKind(err, KindTransport))
}

func TestOpenAI_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	p := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
