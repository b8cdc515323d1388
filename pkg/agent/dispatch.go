package agent

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/parley/pkg/models"
	"github.com/codeready-toolchain/parley/pkg/tools"
)

// thinkToolName gets special event treatment: its calls surface as
// Thought events instead of Action/Observation pairs.
const thinkToolName = "think"

// invocation is one tool call with its resolved tool and normalized
// arguments.
type invocation struct {
	call    models.ToolCall
	tool    tools.Tool
	args    map[string]any
	isThink bool
	done    chan string
}

// dispatch validates, announces, and invokes all tool calls of one
// turn, returning the ToolResult messages in the model's order.
//
// Invocations run concurrently, but emission order is fixed: all
// Thought/Action events first, in call order, then Observations
// awaited in call order. A non-nil fatal return means the run must
// terminate with that error event.
func (o *Orchestrator) dispatch(ctx context.Context, calls []models.ToolCall, events chan<- models.AgentEvent) ([]models.Message, *models.ErrorEvent) {
	invs := make([]*invocation, 0, len(calls))
	for _, call := range calls {
		tool, ok := o.cfg.Registry.Get(call.Name)
		if !ok {
			return nil, &models.ErrorEvent{
				Category: models.ErrCategoryInternal,
				Detail:   fmt.Sprintf("model requested unknown tool %q", call.Name),
			}
		}
		args, err := o.cfg.Registry.NormalizeArguments(call.Name, call.Arguments)
		if err != nil {
			if te, ok := tools.AsToolError(err); ok && te.Category == tools.CategoryMalformedArguments {
				return nil, &models.ErrorEvent{
					Category: models.ErrCategoryMalformed,
					Detail:   te.Message,
				}
			}
			return nil, &models.ErrorEvent{
				Category: models.ErrCategoryInternal,
				Detail:   err.Error(),
			}
		}
		invs = append(invs, &invocation{
			call:    call,
			tool:    tool,
			args:    args,
			isThink: call.Name == thinkToolName,
			done:    make(chan string, 1),
		})
	}

	for _, inv := range invs {
		if inv.isThink {
			thought, _ := inv.args["thought"].(string)
			if !o.emit(ctx, events, models.Thought{Text: thought}) {
				return nil, nil
			}
			continue
		}
		if !o.emit(ctx, events, models.Action{Tool: inv.call.Name, Arguments: inv.args}) {
			return nil, nil
		}
	}

	if ctx.Err() != nil {
		return nil, nil
	}
	for _, inv := range invs {
		go func(inv *invocation) {
			out, err := inv.tool.Invoke(ctx, inv.args)
			if err != nil {
				o.logger.Warn("tool invocation failed",
					"tool", inv.call.Name, "error", err)
				out = tools.ErrorBody(err)
			}
			inv.done <- out
		}(inv)
	}

	results := make([]models.Message, 0, len(invs))
	for _, inv := range invs {
		var out string
		select {
		case out = <-inv.done:
		case <-ctx.Done():
			return nil, nil
		}
		if !inv.isThink {
			if !o.emit(ctx, events, models.Observation{Tool: inv.call.Name, Text: out}) {
				return nil, nil
			}
		}
		results = append(results, models.ToolResultMessage(inv.call.ID, inv.call.Name, out))
	}
	return results, nil
}
