// Package llm provides the provider-agnostic chat-completion client
// with tool binding and token streaming. Concrete providers (OpenAI,
// Gemini) normalize their heterogeneous streaming shapes into the
// uniform Chunk union; nothing provider-specific escapes this package.
package llm

import (
	"context"
	"encoding/json"

	"github.com/codeready-toolchain/parley/pkg/models"
)

// Client is the provider-agnostic streaming chat-completion interface.
// Implementations must be safe for concurrent Stream calls.
type Client interface {
	// Stream opens one LLM turn and returns a lazy, finite chunk
	// sequence. The channel is closed when the turn completes; errors
	// are delivered as ErrorChunk values. If the turn ends with
	// FinishToolCalls, the caller completes the tool calls and
	// re-invokes Stream with the results appended.
	Stream(ctx context.Context, req *Request) (<-chan Chunk, error)

	// Close releases provider resources.
	Close() error
}

// Request is one LLM turn: the full message context, the bound tools,
// and sampling parameters.
type Request struct {
	Messages    []models.Message
	Tools       []ToolDefinition // nil = no tools bound
	Model       string
	Temperature float64
	MaxTokens   int
}

// ToolDefinition describes one tool bound to the LLM turn.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      json.RawMessage // JSON Schema for the arguments object
}

// chunkBufferSize bounds each provider's chunk channel so slow
// consumers backpressure the stream reader instead of growing memory.
const chunkBufferSize = 64

// FinishReason says why an LLM turn ended.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishError         FinishReason = "error"
)

// Chunk is the interface for all streaming chunk types.
type Chunk interface {
	chunkType() ChunkType
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeTextDelta     ChunkType = "text_delta"
	ChunkTypeToolCallDelta ChunkType = "tool_call_delta"
	ChunkTypeEnd           ChunkType = "end"
	ChunkTypeError         ChunkType = "error"
)

// TextDelta is a possibly-empty fragment of the assistant's text.
type TextDelta struct{ Text string }

// ToolCallDelta is a fragment of a tool-call announcement. Providers
// may split one call across many deltas; Index groups fragments of the
// same call, and ID/Name are set on whichever fragment first carries
// them.
type ToolCallDelta struct {
	Index          int
	ID             string
	Name           string
	ArgumentsDelta string
}

// End is the sentinel closing one turn.
type End struct {
	Reason FinishReason
	Usage  *TokenUsage // nil when the provider reported no usage
}

// ErrorChunk signals a stream failure; the turn is dead after it.
type ErrorChunk struct{ Err *Error }

// TokenUsage reports token consumption for one LLM turn.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func (TextDelta) chunkType() ChunkType     { return ChunkTypeTextDelta }
func (ToolCallDelta) chunkType() ChunkType { return ChunkTypeToolCallDelta }
func (End) chunkType() ChunkType           { return ChunkTypeEnd }
func (ErrorChunk) chunkType() ChunkType    { return ChunkTypeError }
