package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/parley/pkg/agent"
	"github.com/codeready-toolchain/parley/pkg/llm"
	"github.com/codeready-toolchain/parley/pkg/session"
	"github.com/codeready-toolchain/parley/pkg/tools"
)

// scriptedLLM replays pre-built chunk turns, one Stream call each.
type scriptedLLM struct {
	turns [][]llm.Chunk
	calls int
}

func (c *scriptedLLM) Stream(_ context.Context, _ *llm.Request) (<-chan llm.Chunk, error) {
	turn := c.turns[c.calls]
	c.calls++
	ch := make(chan llm.Chunk, len(turn))
	for _, chunk := range turn {
		ch <- chunk
	}
	close(ch)
	return ch, nil
}

func (c *scriptedLLM) Close() error { return nil }

// closeNotifyRecorder adds the http.CloseNotifier method that gin's
// Context.Stream requires but httptest.ResponseRecorder lacks.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return make(chan bool) }

func newTestServer(t *testing.T, turns [][]llm.Chunk, store session.Store) *Server {
	t.Helper()
	registry, err := tools.NewRegistry(tools.NewThinkTool())
	require.NoError(t, err)
	orch, err := agent.New(agent.Config{
		LLM:      &scriptedLLM{turns: turns},
		Store:    store,
		Registry: registry,
		Persona:  "test persona",
		Logger:   slog.Default(),
	})
	require.NoError(t, err)
	srv, err := NewServer(ServerConfig{Orchestrator: orch, Store: store})
	require.NoError(t, err)
	return srv
}

func TestAskStreamsSSE(t *testing.T) {
	store := session.NewMemoryStore()
	srv := newTestServer(t, [][]llm.Chunk{{
		llm.TextDelta{Text: "Lang"},
		llm.TextDelta{Text: "Chain is a framework."},
		llm.End{Reason: llm.FinishStop},
	}}, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask",
		strings.NewReader(`{"question": "What is LangChain?", "session_id": "s1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := &closeNotifyRecorder{httptest.NewRecorder()}
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event:token")
	assert.Contains(t, body, `"text":"Lang"`)
	assert.Contains(t, body, `"text":"Chain is a framework."`)
	assert.Contains(t, body, "event:done")
	assert.Contains(t, body, `"session_id":"s1"`)

	// The run committed one User/Assistant pair.
	count, err := store.MessageCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAskEmitsThoughtFrames(t *testing.T) {
	store := session.NewMemoryStore()
	srv := newTestServer(t, [][]llm.Chunk{
		{
			llm.ToolCallDelta{Index: 0, ID: "call_1", Name: "think", ArgumentsDelta: `{"thought":"reason first"}`},
			llm.End{Reason: llm.FinishToolCalls},
		},
		{
			llm.TextDelta{Text: "the answer"},
			llm.End{Reason: llm.FinishStop},
		},
	}, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask",
		strings.NewReader(`{"question": "q", "session_id": "s1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := &closeNotifyRecorder{httptest.NewRecorder()}
	srv.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "event:thought")
	assert.Contains(t, body, `"text":"reason first"`)
	assert.Contains(t, body, "event:token")
	assert.Contains(t, body, "event:done")
}

func TestAskRequiresQuestion(t *testing.T) {
	srv := newTestServer(t, nil, session.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required")
}

func TestAskRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, nil, session.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question": `))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
	assert.NotContains(t, rec.Body.String(), "question is required")
}

func TestSessionEndpoints(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Append(ctx, "s1", "q", "a"))
	srv := newTestServer(t, nil, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "s1")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message_count":2`)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/clear", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	count, err := store.MessageCount(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, count)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthWithoutDatabase(t *testing.T) {
	srv := newTestServer(t, nil, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
