package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

const (
	defaultRAGCollection = "documents"
	defaultRAGTopK       = 4
)

var ragSearchSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The question or phrase to search the indexed documents for."
		}
	},
	"required": ["query"]
}`)

// RAGSearchConfig configures the document search tool.
type RAGSearchConfig struct {
	// PersistDir stores the vector database on disk. Empty keeps it in
	// memory only.
	PersistDir string
	// Collection name, default "documents".
	Collection string
	// TopK results per query, default 4.
	TopK int
	// EmbeddingFunc computes embeddings for documents and queries.
	// Defaults to the OpenAI embedding API using OPENAI_API_KEY.
	EmbeddingFunc chromem.EmbeddingFunc
}

// RAGSearchTool answers queries against a local vector index of
// ingested documents, backed by chromem-go.
type RAGSearchTool struct {
	col  *chromem.Collection
	topK int
}

// NewRAGSearchTool opens (or creates) the vector database and its
// document collection.
func NewRAGSearchTool(cfg RAGSearchConfig) (*RAGSearchTool, error) {
	if cfg.Collection == "" {
		cfg.Collection = defaultRAGCollection
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultRAGTopK
	}
	if cfg.EmbeddingFunc == nil {
		cfg.EmbeddingFunc = chromem.NewEmbeddingFuncOpenAI(
			os.Getenv("OPENAI_API_KEY"), chromem.EmbeddingModelOpenAI3Small)
	}

	var db *chromem.DB
	if cfg.PersistDir != "" {
		if err := os.MkdirAll(cfg.PersistDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persist directory: %w", err)
		}
		var err error
		db, err = chromem.NewPersistentDB(filepath.Join(cfg.PersistDir, "vectors"), false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(cfg.Collection, nil, cfg.EmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", cfg.Collection, err)
	}
	return &RAGSearchTool{col: col, topK: cfg.TopK}, nil
}

func (t *RAGSearchTool) Name() string { return "rag_search" }

func (t *RAGSearchTool) Description() string {
	return "Search the locally indexed document collection for relevant passages.\n" +
		"Use this for questions about material that has been ingested into the knowledge base."
}

func (t *RAGSearchTool) Schema() json.RawMessage { return ragSearchSchema }

// AddDocuments ingests documents into the index. IDs must be unique;
// re-adding an ID replaces the previous document.
func (t *RAGSearchTool) AddDocuments(ctx context.Context, docs []chromem.Document) error {
	if err := t.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to index documents: %w", err)
	}
	return nil
}

// Invoke queries the index and renders the best-matching passages.
func (t *RAGSearchTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", NewToolError(t.Name(), CategoryMalformedArguments, fmt.Errorf("query must not be empty"))
	}

	count := t.col.Count()
	if count == 0 {
		return "No documents have been indexed yet.", nil
	}
	topK := t.topK
	if topK > count {
		topK = count
	}

	results, err := t.col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", NewToolError(t.Name(), CategoryTimeout, err)
		}
		return "", NewToolError(t.Name(), CategoryUnavailable, fmt.Errorf("query failed: %w", err))
	}
	if len(results) == 0 {
		return fmt.Sprintf("No indexed passages matched %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Passages matching %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. [%s] (similarity %.2f)\n%s\n", i+1, r.ID, r.Similarity, r.Content)
	}
	return b.String(), nil
}
