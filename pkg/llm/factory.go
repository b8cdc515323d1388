package llm

import (
	"context"
	"fmt"
)

// Provider names accepted by NewClient.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ProviderConfig selects and configures a concrete provider backend.
type ProviderConfig struct {
	Provider      string // "openai" or "gemini"
	Model         string // default model, empty = provider default
	OpenAIAPIKey  string
	OpenAIBaseURL string // optional OpenAI-compatible endpoint
	GeminiAPIKey  string
}

// NewClient constructs the provider named by cfg.Provider.
func NewClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
