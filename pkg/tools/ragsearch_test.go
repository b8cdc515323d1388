package tools

import (
	"context"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedding maps a few known strings onto fixed unit vectors so
// similarity is deterministic without a real embedding API.
func stubEmbedding(_ context.Context, text string) ([]float32, error) {
	switch text {
	case "gophers burrow underground", "where do gophers live?":
		return []float32{1, 0, 0}, nil
	case "rust prevents data races":
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func newTestRAGTool(t *testing.T) *RAGSearchTool {
	t.Helper()
	tool, err := NewRAGSearchTool(RAGSearchConfig{EmbeddingFunc: stubEmbedding})
	require.NoError(t, err)
	return tool
}

func TestRAGSearchEmptyIndex(t *testing.T) {
	tool := newTestRAGTool(t)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)
	assert.Equal(t, "No documents have been indexed yet.", out)
}

func TestRAGSearchFindsBestMatch(t *testing.T) {
	ctx := context.Background()
	tool := newTestRAGTool(t)
	require.NoError(t, tool.AddDocuments(ctx, []chromem.Document{
		{ID: "doc-gopher", Content: "gophers burrow underground"},
		{ID: "doc-rust", Content: "rust prevents data races"},
	}))

	out, err := tool.Invoke(ctx, map[string]any{"query": "where do gophers live?"})
	require.NoError(t, err)
	assert.Contains(t, out, "doc-gopher")
	assert.Contains(t, out, "gophers burrow underground")
}

func TestRAGSearchClampsTopK(t *testing.T) {
	ctx := context.Background()
	tool, err := NewRAGSearchTool(RAGSearchConfig{EmbeddingFunc: stubEmbedding, TopK: 10})
	require.NoError(t, err)
	require.NoError(t, tool.AddDocuments(ctx, []chromem.Document{
		{ID: "only", Content: "gophers burrow underground"},
	}))

	// TopK above the collection size must not fail the query.
	out, err := tool.Invoke(ctx, map[string]any{"query": "where do gophers live?"})
	require.NoError(t, err)
	assert.Contains(t, out, "only")
}

func TestRAGSearchEmptyQuery(t *testing.T) {
	tool := newTestRAGTool(t)
	_, err := tool.Invoke(context.Background(), map[string]any{"query": ""})
	te, ok := AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryMalformedArguments, te.Category)
}
