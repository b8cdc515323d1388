// Package tools defines the tool contract the agent exposes to the
// LLM, the registry that validates and normalizes tool arguments, and
// the built-in tools (think, web_search, rag_search).
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Tool is a named, async-invocable capability bound to the LLM.
// Implementations must be safe for concurrent Invoke calls and bound
// their own runtime (internal timeouts); output is always UTF-8 text.
type Tool interface {
	// Name is unique and identifier-shaped.
	Name() string
	// Description is natural language; its first line is shown to the
	// model in the system prompt's tool list.
	Description() string
	// Schema is the JSON Schema for the arguments object.
	Schema() json.RawMessage
	// Invoke runs the tool with already-validated arguments.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// ErrorCategory classifies tool failures.
type ErrorCategory string

const (
	CategoryMalformedArguments ErrorCategory = "malformed_arguments"
	CategoryTimeout            ErrorCategory = "timeout"
	CategoryUnavailable        ErrorCategory = "unavailable"
	CategoryInternal           ErrorCategory = "internal"
)

// ToolError is a failed tool invocation. The orchestrator converts
// these into observation bodies fed back to the LLM, except for
// malformed_arguments, which is terminal.
type ToolError struct {
	Tool     string
	Category ErrorCategory
	Message  string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %s", e.Tool, e.Category, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError builds a ToolError.
func NewToolError(tool string, category ErrorCategory, err error) *ToolError {
	return &ToolError{Tool: tool, Category: category, Message: err.Error(), Err: err}
}

// AsToolError extracts a *ToolError from err, if present.
func AsToolError(err error) (*ToolError, bool) {
	var te *ToolError
	ok := errors.As(err, &te)
	return te, ok
}

// ErrorBody renders a tool failure as the stable observation body fed
// back to the LLM, e.g. "[error: timeout: deadline exceeded]".
func ErrorBody(err error) string {
	if te, ok := AsToolError(err); ok {
		return fmt.Sprintf("[error: %s: %s]", te.Category, te.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("[error: %s: %s]", CategoryTimeout, err.Error())
	}
	return fmt.Sprintf("[error: %s: %s]", CategoryInternal, err.Error())
}
