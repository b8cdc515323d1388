package agent

import (
	"context"
	"sort"
	"strings"

	"github.com/codeready-toolchain/parley/pkg/llm"
	"github.com/codeready-toolchain/parley/pkg/models"
)

// turn is one completed assistant turn assembled from the chunk
// stream: buffered text fragments, reconstructed tool calls, and the
// finish reason.
//
// Fragments are buffered, not streamed, because stop-vs-tool_calls is
// only known at the End chunk; a tool_calls turn must not leak its
// text to the client.
type turn struct {
	fragments []string
	calls     []models.ToolCall
	finish    llm.FinishReason
}

func (t *turn) text() string {
	return strings.Join(t.fragments, "")
}

// pendingCall accumulates tool-call fragments that share a stream index.
type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

// llmStep opens one LLM stream and consumes it to completion,
// checking cancellation between chunks.
func (o *Orchestrator) llmStep(ctx context.Context, messages []models.Message, defs []llm.ToolDefinition, cfg models.RunConfig) (*turn, error) {
	chunks, err := o.cfg.LLM.Stream(ctx, &llm.Request{
		Messages:    messages,
		Tools:       defs,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	t := &turn{}
	pending := make(map[int]*pendingCall)
	for chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch c := chunk.(type) {
		case llm.TextDelta:
			t.fragments = append(t.fragments, c.Text)
		case llm.ToolCallDelta:
			pc, ok := pending[c.Index]
			if !ok {
				pc = &pendingCall{}
				pending[c.Index] = pc
			}
			if c.ID != "" {
				pc.id = c.ID
			}
			if c.Name != "" {
				pc.name = c.Name
			}
			pc.args.WriteString(c.ArgumentsDelta)
		case llm.End:
			t.finish = c.Reason
		case llm.ErrorChunk:
			return nil, c.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stream indexes are the model's emission order.
	indexes := make([]int, 0, len(pending))
	for idx := range pending {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		pc := pending[idx]
		t.calls = append(t.calls, models.ToolCall{
			ID:        pc.id,
			Name:      pc.name,
			Arguments: pc.args.String(),
		})
	}
	return t, nil
}
