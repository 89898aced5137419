package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judge"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment/judgmenttest"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/llm"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/orchestrator"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const flatmateBody = `{"context":"My flatmate never washes up and I confronted them angrily","query":"Was I wrong to shout?"}`

func newServer(t *testing.T, p llm.Provider) *Server {
	t.Helper()
	svc, err := judge.New(orchestrator.New(p),
		judge.WithStore(store.NewMemStore(), time.Hour),
		judge.WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)
	return New(svc, config.Server{}, zaptest.NewLogger(t))
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/judge", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ---------------------------------------------------------------------------
// POST /api/judge
// ---------------------------------------------------------------------------

func TestJudge_Success(t *testing.T) {
	h := newServer(t, llm.NewScripted(llm.Reply(judgmenttest.JSON(nil)))).Handler()

	rec := post(t, h, flatmateBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Result-Id"))

	var res judgment.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Personas, 3)
	assert.Equal(t, judgment.PersonaTherapist, res.Personas[0].Name)

	// The body is the bare result, nothing else.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Len(t, raw, 3)
}

func TestJudge_ResultRoundTrip(t *testing.T) {
	h := newServer(t, llm.NewScripted(llm.Reply(judgmenttest.JSON(nil)))).Handler()

	rec := post(t, h, flatmateBody)
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get("X-Result-Id")

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/results/"+id, nil))
	require.Equal(t, http.StatusOK, get.Code)

	var stored store.Record
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &stored))
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, "Was I wrong to shout?", stored.Query)
	require.NotNil(t, stored.Result)
	assert.Len(t, stored.Result.Personas, 3)
}

func TestJudge_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"not json", "hello", http.StatusBadRequest, "request body must be a JSON object with context and query"},
		{"array body", `["My flatmate never washes up","Was I wrong?"]`, http.StatusBadRequest, "request body must be a JSON object with context and query"},
		{"trailing data", flatmateBody + `{}`, http.StatusBadRequest, "request body must contain a single JSON object"},
		{"missing context", `{"query":"Was I wrong to shout?"}`, http.StatusBadRequest, "context is required"},
		{"short query", `{"context":"My flatmate never washes up","query":"Eh"}`, http.StatusBadRequest, "query must be at least 5 characters"},
		{"too large", `{"context":"` + strings.Repeat("x", MaxBodyBytes) + `","query":"Was I wrong?"}`, http.StatusRequestEntityTooLarge, "request body too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llm.NewScripted(llm.Reply(judgmenttest.JSON(nil)))
			rec := post(t, newServer(t, p).Handler(), tt.body)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec)["error"])
			assert.Zero(t, p.Calls())
		})
	}
}

func TestJudge_IgnoresUnknownFields(t *testing.T) {
	p := llm.NewScripted(llm.Reply(judgmenttest.JSON(nil)))
	body := `{"context":"My flatmate never washes up and I confronted them angrily","query":"Was I wrong to shout?","locale":"en-GB"}`

	rec := post(t, newServer(t, p).Handler(), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Result-Id"))
	assert.Equal(t, 1, p.Calls())
}

func TestJudge_ProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"auth", &llm.Error{Kind: llm.KindAuth, StatusCode: 401, Message: "bad key"}, http.StatusInternalServerError},
		{"quota", &llm.Error{Kind: llm.KindQuota, StatusCode: 429, Message: "slow down"}, http.StatusTooManyRequests},
		{"server", &llm.Error{Kind: llm.KindServer, StatusCode: 503, Message: "busy"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newServer(t, llm.NewScripted(llm.Fail(tt.err))).Handler(), flatmateBody)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec)["error"])
			assert.Empty(t, rec.Header().Get("X-Result-Id"))
		})
	}
}

func TestJudge_CitationFailureDetails(t *testing.T) {
	bad := judgmenttest.JSON(judgmenttest.WithSummary("You were right to raise it [2]."))
	rec := post(t, newServer(t, llm.NewScripted(llm.Reply(bad))).Handler(), flatmateBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.NotContains(t, body["error"], "You were right to raise it")
	details, ok := body["details"].(map[string]any)
	require.True(t, ok, "details: %v", body["details"])
	assert.Equal(t, []any{float64(2)}, details["invalid_references"])
	assert.Equal(t, float64(0), details["available_references"])
}

func TestJudge_NoProvider(t *testing.T) {
	svc, err := judge.New(orchestrator.New(nil))
	require.NoError(t, err)
	rec := post(t, New(svc, config.Server{}, nil).Handler(), flatmateBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "no model provider is configured", decodeError(t, rec)["error"])
}

// ---------------------------------------------------------------------------
// Other routes
// ---------------------------------------------------------------------------

func TestResult_NotFound(t *testing.T) {
	h := newServer(t, llm.NewScripted()).Handler()
	for _, id := range []string{"not-a-uuid", "8a0b1c2d-0000-4000-8000-000000000000"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, "result not found", decodeError(t, rec)["error"])
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t, llm.NewScripted()).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t, llm.NewScripted()).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/judge", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, err := judge.New(orchestrator.New(llm.NewScripted()))
	require.NoError(t, err)
	h := New(svc, config.Server{}, zap.New(core)).Handler()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/healthz", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

// ---------------------------------------------------------------------------
// Serve lifecycle
// ---------------------------------------------------------------------------

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := newServer(t, llm.NewScripted(llm.Reply(judgmenttest.JSON(nil))))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+ln.Addr().String()+"/api/judge", "application/json", strings.NewReader(flatmateBody))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenAndServe_BadAddr(t *testing.T) {
	srv := New(nil, config.Server{Addr: "256.0.0.1:bad"}, nil)
	err := srv.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server: listen")
}
