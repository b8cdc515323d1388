package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// thinkSchema accepts a single required reasoning string.
var thinkSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"thought": {
			"type": "string",
			"description": "The reasoning step to record."
		}
	},
	"required": ["thought"]
}`)

// ThinkTool is the identity function: it returns its input. Its
// purpose is to force the LLM to verbalize a reasoning step before
// acting; the orchestrator surfaces these as Thought events.
type ThinkTool struct{}

// NewThinkTool creates the mandatory think tool.
func NewThinkTool() *ThinkTool { return &ThinkTool{} }

func (t *ThinkTool) Name() string { return "think" }

func (t *ThinkTool) Description() string {
	return "Record a reasoning step before taking any other action. Always call this first.\n" +
		"The thought is returned unchanged and kept in the conversation so later steps can build on it."
}

func (t *ThinkTool) Schema() json.RawMessage { return thinkSchema }

// Invoke returns the thought unchanged.
func (t *ThinkTool) Invoke(_ context.Context, args map[string]any) (string, error) {
	thought, ok := args["thought"].(string)
	if !ok {
		return "", NewToolError(t.Name(), CategoryMalformedArguments,
			fmt.Errorf("thought must be a string"))
	}
	return thought, nil
}
