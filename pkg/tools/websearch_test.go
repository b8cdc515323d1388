package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duckDuckGoFixture = `{
	"Heading": "Go (programming language)",
	"AbstractText": "Go is a statically typed language.",
	"AbstractURL": "https://en.wikipedia.org/wiki/Go",
	"RelatedTopics": [
		{"FirstURL": "https://go.dev", "Text": "The Go website"}
	]
}`

func TestWebSearchDuckDuckGo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(duckDuckGoFixture))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{DuckDuckGoURL: srv.URL})
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "golang"})
	require.NoError(t, err)
	assert.Contains(t, out, "Go (programming language)")
	assert.Contains(t, out, "https://en.wikipedia.org/wiki/Go")
	assert.Contains(t, out, "statically typed")
	assert.Contains(t, out, "https://go.dev")
}

func TestWebSearchSearXNG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"results": [
			{"title": "Result A", "url": "https://a.example", "content": "snippet a"},
			{"title": "Result B", "url": "https://b.example", "content": "snippet b"}
		]}`))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{SearXNGURL: srv.URL})
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)
	assert.Contains(t, out, "Result A")
	assert.Contains(t, out, "https://b.example")
}

func TestWebSearchBraveSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("X-Subscription-Token"))
		w.Write([]byte(`{"web": {"results": [
			{"title": "Brave hit", "url": "https://hit.example", "description": "found it"}
		]}}`))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{BraveAPIKey: "secret-token", BraveURL: srv.URL})
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Contains(t, out, "Brave hit")
}

func TestWebSearchFallsBackToDuckDuckGo(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(duckDuckGoFixture))
	}))
	defer ddg.Close()

	tool := NewWebSearchTool(WebSearchConfig{SearXNGURL: failing.URL, DuckDuckGoURL: ddg.URL})
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "golang"})
	require.NoError(t, err)
	assert.Contains(t, out, "Go (programming language)")
}

func TestWebSearchUnavailableWhenAllBackendsFail(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	tool := NewWebSearchTool(WebSearchConfig{DuckDuckGoURL: failing.URL})
	_, err := tool.Invoke(context.Background(), map[string]any{"query": "q"})
	te, ok := AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryUnavailable, te.Category)
}

func TestWebSearchCachesResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(duckDuckGoFixture))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{DuckDuckGoURL: srv.URL, CacheTTL: time.Minute})
	for i := 0; i < 3; i++ {
		_, err := tool.Invoke(context.Background(), map[string]any{"query": "golang"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load(), "repeat queries must hit the cache")
}

func TestWebSearchEmptyQuery(t *testing.T) {
	tool := NewWebSearchTool(WebSearchConfig{})
	_, err := tool.Invoke(context.Background(), map[string]any{"query": "   "})
	te, ok := AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryMalformedArguments, te.Category)
}

func TestWebSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebSearchConfig{DuckDuckGoURL: srv.URL})
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "gibberish"})
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}
