package models

// EventType identifies the kind of agent event. The values double as
// SSE event names on the wire.
type EventType string

const (
	EventTypeThought     EventType = "thought"
	EventTypeAction      EventType = "action"
	EventTypeObservation EventType = "observation"
	EventTypeToken       EventType = "token"
	EventTypeError       EventType = "error"
	EventTypeDone        EventType = "done"
)

// AgentEvent is the tagged union emitted by the orchestrator during a
// run. The stream for a single request is finite, totally ordered, and
// ends in exactly one Done (or, on cancellation, ends silently).
type AgentEvent interface {
	Type() EventType
}

// Thought is a reasoning step the model recorded via the think tool.
type Thought struct {
	Text string `json:"text"`
}

// Action announces a tool invocation with its decoded arguments.
type Action struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Observation carries the text output of one tool invocation.
type Observation struct {
	Tool string `json:"tool"`
	Text string `json:"text"`
}

// Token is a fragment of the final assistant answer.
type Token struct {
	Text string `json:"text"`
}

// ErrorEvent reports a terminal failure with a stable category.
type ErrorEvent struct {
	Category ErrorCategory `json:"category"`
	Detail   string        `json:"detail"`
}

// Done terminates a normal (or error-terminated) event stream.
type Done struct {
	SessionID string `json:"session_id"`
}

func (Thought) Type() EventType     { return EventTypeThought }
func (Action) Type() EventType      { return EventTypeAction }
func (Observation) Type() EventType { return EventTypeObservation }
func (Token) Type() EventType       { return EventTypeToken }
func (ErrorEvent) Type() EventType  { return EventTypeError }
func (Done) Type() EventType        { return EventTypeDone }

// ErrorCategory is the stable error taxonomy surfaced to clients.
type ErrorCategory string

const (
	ErrCategoryTransport      ErrorCategory = "transport"
	ErrCategoryRateLimit      ErrorCategory = "rate_limit"
	ErrCategoryAuth           ErrorCategory = "auth"
	ErrCategoryTimeout        ErrorCategory = "timeout"
	ErrCategoryMalformed      ErrorCategory = "malformed"
	ErrCategoryFiltered       ErrorCategory = "filtered"
	ErrCategoryRecursionLimit ErrorCategory = "recursion_limit"
	ErrCategoryStorage        ErrorCategory = "storage"
	ErrCategoryCancelled      ErrorCategory = "cancelled"
	ErrCategoryInternal       ErrorCategory = "internal"
)
