// Package config loads service configuration from environment
// variables. Database settings live in the database package; LLM and
// tool credentials are read here and handed to their owners.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/codeready-toolchain/parley/pkg/llm"
)

// Session backends.
const (
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultHTTPPort       = 8080
	DefaultLanguage       = "English"
	DefaultPersona        = "You are a careful, helpful research assistant."
	DefaultSessionBackend = SessionBackendMemory
)

// Config is the full service configuration.
type Config struct {
	// LLM provider selection and credentials.
	LLMProvider   string
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string

	// Prompt inputs.
	ResponseLanguage string
	AgentPersona     string
	AgentDescription string

	// Agent loop.
	MaxSteps int

	// HTTP.
	HTTPPort int

	// Session persistence: "memory" or "postgres".
	SessionBackend string

	// Tool backends.
	SearXNGURL  string
	BraveAPIKey string
	// RAGPersistDir enables the rag_search tool when non-empty.
	RAGPersistDir string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		LLMProvider:      getEnvOrDefault("LLM_PROVIDER", llm.ProviderOpenAI),
		Model:            os.Getenv("LLM_MODEL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		ResponseLanguage: getEnvOrDefault("RESPONSE_LANGUAGE", DefaultLanguage),
		AgentPersona:     getEnvOrDefault("AGENT_PERSONA", DefaultPersona),
		AgentDescription: os.Getenv("AGENT_DESCRIPTION"),
		SessionBackend:   getEnvOrDefault("SESSION_BACKEND", DefaultSessionBackend),
		SearXNGURL:       os.Getenv("SEARXNG_URL"),
		BraveAPIKey:      os.Getenv("BRAVE_API_KEY"),
		RAGPersistDir:    os.Getenv("RAG_PERSIST_DIR"),
	}

	port, err := intFromEnv("HTTP_PORT", DefaultHTTPPort)
	if err != nil {
		return nil, err
	}
	cfg.HTTPPort = port

	maxSteps, err := intFromEnv("AGENT_MAX_STEPS", 0)
	if err != nil {
		return nil, err
	}
	cfg.MaxSteps = maxSteps

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case llm.ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case llm.ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (expected %q or %q)",
			c.LLMProvider, llm.ProviderOpenAI, llm.ProviderGemini)
	}

	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendPostgres:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (expected %q or %q)",
			c.SessionBackend, SessionBackendMemory, SessionBackendPostgres)
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT %d is out of range", c.HTTPPort)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("AGENT_MAX_STEPS must not be negative")
	}
	return nil
}

// ProviderConfig extracts the LLM client configuration.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:      c.LLMProvider,
		Model:         c.Model,
		OpenAIAPIKey:  c.OpenAIAPIKey,
		OpenAIBaseURL: c.OpenAIBaseURL,
		GeminiAPIKey:  c.GeminiAPIKey,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func intFromEnv(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
