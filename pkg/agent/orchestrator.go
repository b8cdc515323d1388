// Package agent implements the reasoning loop at the heart of the
// service: a state machine that invokes the LLM with tool-binding,
// dispatches tool calls, feeds results back, bounds recursion, and
// multiplexes everything into a typed event stream.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/parley/pkg/llm"
	"github.com/codeready-toolchain/parley/pkg/models"
	"github.com/codeready-toolchain/parley/pkg/prompt"
	"github.com/codeready-toolchain/parley/pkg/session"
	"github.com/codeready-toolchain/parley/pkg/tools"
)

// eventBufferSize bounds the event channel. A slow consumer suspends
// the run at the emission point rather than amplifying work.
const eventBufferSize = 32

// Config carries the orchestrator's static collaborators and prompt
// inputs. Per-request parameters travel in models.RunConfig.
type Config struct {
	LLM      llm.Client
	Store    session.Store
	Registry *tools.Registry

	// Prompt inputs (see prompt.BuildSystemPrompt).
	Persona     string
	Description string
	Language    string

	// PromptTemplate overrides the built-in system prompt template.
	// Tests use this; production leaves it empty.
	PromptTemplate string

	// MaxSteps is the service-wide step cap applied when a request does
	// not set its own. Zero uses the built-in default.
	MaxSteps int

	Logger *slog.Logger
}

// Orchestrator runs agent requests. Safe for concurrent Run calls: it
// holds no cross-request mutable state.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an orchestrator. LLM, Store, and Registry are required.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, logger: logger}, nil
}

// Run starts one agent request and returns its event stream. The
// channel is closed when the run terminates; on normal or error
// termination the last event is Done, on cancellation the channel
// closes without a terminal event.
//
// An empty sessionID starts a fresh session; its generated id is
// carried in the terminal Done event.
func (o *Orchestrator) Run(ctx context.Context, question, sessionID string, cfg models.RunConfig) <-chan models.AgentEvent {
	events := make(chan models.AgentEvent, eventBufferSize)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = o.cfg.MaxSteps
	}
	cfg = cfg.WithDefaults()

	go func() {
		defer close(events)
		start := time.Now()
		o.run(ctx, question, sessionID, cfg, events)
		o.logger.Info("agent run finished",
			"session_id", sessionID,
			"duration", time.Since(start))
	}()
	return events
}

// run drives the state machine. All event emission goes through emit,
// which doubles as a cancellation point.
func (o *Orchestrator) run(ctx context.Context, question, sessionID string, cfg models.RunConfig, events chan<- models.AgentEvent) {
	messages, err := o.initialMessages(ctx, question, sessionID)
	if err != nil {
		o.logger.Error("failed to compose initial messages", "session_id", sessionID, "error", err)
		o.fail(ctx, events, sessionID, errorEventFor(err))
		return
	}
	defs := o.cfg.Registry.Definitions()

	for step := 0; ; step++ {
		if step >= cfg.MaxSteps {
			o.fail(ctx, events, sessionID, models.ErrorEvent{
				Category: models.ErrCategoryRecursionLimit,
				Detail:   fmt.Sprintf("no final answer after %d steps", cfg.MaxSteps),
			})
			return
		}
		if ctx.Err() != nil {
			return
		}

		t, err := o.llmStep(ctx, messages, defs, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.Error("llm step failed", "session_id", sessionID, "step", step, "error", err)
			o.fail(ctx, events, sessionID, errorEventFor(err))
			return
		}

		// A turn with tool calls is never the final answer; any text it
		// carried stays in the working buffer, not the client stream.
		if len(t.calls) > 0 {
			results, fatal := o.dispatch(ctx, t.calls, events)
			if ctx.Err() != nil {
				return
			}
			if fatal != nil {
				o.fail(ctx, events, sessionID, *fatal)
				return
			}
			messages = append(messages, models.AssistantMessage(t.text(), t.calls...))
			messages = append(messages, results...)
			continue
		}

		switch t.finish {
		case llm.FinishContentFilter:
			o.fail(ctx, events, sessionID, models.ErrorEvent{
				Category: models.ErrCategoryFiltered,
				Detail:   "provider content filter triggered",
			})
			return
		case llm.FinishError:
			// Providers normally report failures via an ErrorChunk; a bare
			// error finish still must not commit.
			o.fail(ctx, events, sessionID, models.ErrorEvent{
				Category: models.ErrCategoryInternal,
				Detail:   "llm stream ended in an error state",
			})
			return
		}

		// Final turn: flush the buffered fragments as Token events, then
		// commit the User/Assistant pair.
		for _, frag := range t.fragments {
			if !o.emit(ctx, events, models.Token{Text: frag}) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		final := t.text()
		if err := o.cfg.Store.Append(ctx, sessionID, question, final); err != nil {
			o.logger.Error("failed to persist turn", "session_id", sessionID, "error", err)
			o.fail(ctx, events, sessionID, models.ErrorEvent{
				Category: models.ErrCategoryStorage,
				Detail:   err.Error(),
			})
			return
		}
		o.emit(ctx, events, models.Done{SessionID: sessionID})
		return
	}
}

// initialMessages composes [System, history..., User(question)].
func (o *Orchestrator) initialMessages(ctx context.Context, question, sessionID string) ([]models.Message, error) {
	system, err := prompt.BuildSystemPrompt(prompt.Params{
		Tools:       o.cfg.Registry.Definitions(),
		Language:    o.cfg.Language,
		Persona:     o.cfg.Persona,
		Description: o.cfg.Description,
		Now:         time.Now(),
		Template:    o.cfg.PromptTemplate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build system prompt: %w", err)
	}
	history, err := o.cfg.Store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.SystemMessage(system))
	messages = append(messages, history...)
	messages = append(messages, models.UserMessage(question))
	return messages, nil
}

// emit delivers one event, suspending on a full channel. Returns false
// when the run was cancelled instead.
func (o *Orchestrator) emit(ctx context.Context, events chan<- models.AgentEvent, e models.AgentEvent) bool {
	select {
	case events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// fail emits a terminal Error followed by Done.
func (o *Orchestrator) fail(ctx context.Context, events chan<- models.AgentEvent, sessionID string, e models.ErrorEvent) {
	if !o.emit(ctx, events, e) {
		return
	}
	o.emit(ctx, events, models.Done{SessionID: sessionID})
}

// errorEventFor maps an internal error to its client-visible category.
func errorEventFor(err error) models.ErrorEvent {
	if le, ok := llm.AsError(err); ok {
		return models.ErrorEvent{Category: models.ErrorCategory(le.Category), Detail: le.Message}
	}
	var se *session.StorageError
	if errors.As(err, &se) {
		return models.ErrorEvent{Category: models.ErrCategoryStorage, Detail: se.Error()}
	}
	return models.ErrorEvent{Category: models.ErrCategoryInternal, Detail: err.Error()}
}
