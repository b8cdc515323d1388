package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueryTool(name string) Tool {
	return &staticTool{
		name: name,
		schema: json.RawMessage(`{
			"type": "object",
			"properties": {"query": {"type": "string"}},
			"required": ["query"]
		}`),
	}
}

type staticTool struct {
	name   string
	schema json.RawMessage
}

func (t *staticTool) Name() string            { return t.name }
func (t *staticTool) Description() string     { return "static tool\nsecond line" }
func (t *staticTool) Schema() json.RawMessage { return t.schema }
func (t *staticTool) Invoke(_ context.Context, _ map[string]any) (string, error) {
	return "", nil
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(newQueryTool("a"), newQueryTool("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate tool name")
}

func TestNewRegistryRejectsInvalidSchema(t *testing.T) {
	_, err := NewRegistry(&staticTool{name: "bad", schema: json.RawMessage(`{"type": 42}`)})
	require.Error(t, err)
}

func TestDefinitionsPreserveRegistrationOrder(t *testing.T) {
	r, err := NewRegistry(newQueryTool("zeta"), newQueryTool("alpha"), newQueryTool("mid"))
	require.NoError(t, err)

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "zeta", defs[0].Name)
	assert.Equal(t, "alpha", defs[1].Name)
	assert.Equal(t, "mid", defs[2].Name)
}

func TestNormalizeArguments(t *testing.T) {
	multiField := &staticTool{
		name: "multi",
		schema: json.RawMessage(`{
			"type": "object",
			"properties": {"a": {"type": "string"}, "b": {"type": "string"}},
			"required": ["a", "b"]
		}`),
	}
	r, err := NewRegistry(newQueryTool("search"), multiField)
	require.NoError(t, err)

	tests := []struct {
		name     string
		tool     string
		raw      string
		want     map[string]any
		wantCat  ErrorCategory
	}{
		{
			name: "json object",
			tool: "search",
			raw:  `{"query": "go generics"}`,
			want: map[string]any{"query": "go generics"},
		},
		{
			name: "json string containing json",
			tool: "search",
			raw:  `"{\"query\": \"go generics\"}"`,
			want: map[string]any{"query": "go generics"},
		},
		{
			name: "quoted bare string",
			tool: "search",
			raw:  `"latest GPT-5"`,
			want: map[string]any{"query": "latest GPT-5"},
		},
		{
			name: "unquoted bare string",
			tool: "search",
			raw:  `latest GPT-5`,
			want: map[string]any{"query": "latest GPT-5"},
		},
		{
			name: "empty arguments fail required",
			tool: "search",
			raw:  ``,
			wantCat: CategoryMalformedArguments,
		},
		{
			name: "object missing required field",
			tool: "search",
			raw:  `{"q": "oops"}`,
			wantCat: CategoryMalformedArguments,
		},
		{
			name: "bare string with multi-field schema",
			tool: "multi",
			raw:  `latest GPT-5`,
			wantCat: CategoryMalformedArguments,
		},
		{
			name: "array is not an object",
			tool: "search",
			raw:  `["query"]`,
			wantCat: CategoryMalformedArguments,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.NormalizeArguments(tc.tool, tc.raw)
			if tc.wantCat != "" {
				te, ok := AsToolError(err)
				require.True(t, ok, "expected ToolError, got %v", err)
				assert.Equal(t, tc.wantCat, te.Category)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeArgumentsUnknownTool(t *testing.T) {
	r, err := NewRegistry(newQueryTool("search"))
	require.NoError(t, err)

	_, err = r.NormalizeArguments("nope", `{}`)
	te, ok := AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryInternal, te.Category)
}

func TestErrorBody(t *testing.T) {
	err := NewToolError("web_search", CategoryTimeout, context.DeadlineExceeded)
	assert.Equal(t, "[error: timeout: context deadline exceeded]", ErrorBody(err))

	assert.Equal(t, "[error: timeout: context deadline exceeded]", ErrorBody(context.DeadlineExceeded))
	assert.Equal(t, "[error: internal: boom]", ErrorBody(errors.New("boom")))
}
