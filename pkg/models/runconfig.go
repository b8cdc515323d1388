package models

// Run configuration defaults.
const (
	DefaultMaxSteps    = 10
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// RunConfig carries per-request parameters for one agent run.
// Zero values mean "use the default"; cancellation travels on the
// context passed to Run, not here.
type RunConfig struct {
	// MaxSteps caps the number of LLM-step/tool-dispatch cycles.
	MaxSteps int
	// MaxTokens bounds LLM output tokens per step.
	MaxTokens int
	// Temperature for LLM sampling.
	Temperature float64
	// Model overrides the provider's default model when non-empty.
	Model string
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c RunConfig) WithDefaults() RunConfig {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}
