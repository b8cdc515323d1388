// Parley server — a conversational question-answering service built
// around a reason/act/observe agent loop streamed over SSE.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/parley/pkg/agent"
	"github.com/codeready-toolchain/parley/pkg/api"
	"github.com/codeready-toolchain/parley/pkg/config"
	"github.com/codeready-toolchain/parley/pkg/database"
	"github.com/codeready-toolchain/parley/pkg/llm"
	"github.com/codeready-toolchain/parley/pkg/session"
	"github.com/codeready-toolchain/parley/pkg/tools"
	"github.com/codeready-toolchain/parley/pkg/version"
)

func main() {
	envPath := flag.String("env-file", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", *envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", *envPath)
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting parley",
		"version", version.Full(),
		"provider", cfg.LLMProvider,
		"session_backend", cfg.SessionBackend,
		"http_port", cfg.HTTPPort)

	// Session store: in-process by default, PostgreSQL when configured.
	var store session.Store
	var dbClient *database.Client
	if cfg.SessionBackend == config.SessionBackendPostgres {
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			slog.Error("Failed to load database config", "error", err)
			os.Exit(1)
		}
		dbClient, err = database.NewClient(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		store = session.NewPostgresStore(dbClient.DB())
		slog.Info("Connected to PostgreSQL database")
	} else {
		store = session.NewMemoryStore()
	}

	llmClient, err := llm.NewClient(ctx, cfg.ProviderConfig())
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := llmClient.Close(); err != nil {
			slog.Error("Error closing LLM client", "error", err)
		}
	}()
	slog.Info("LLM client initialized", "provider", cfg.LLMProvider)

	registry, err := buildRegistry(cfg)
	if err != nil {
		slog.Error("Failed to build tool registry", "error", err)
		os.Exit(1)
	}

	orchestrator, err := agent.New(agent.Config{
		LLM:         llmClient,
		Store:       store,
		Registry:    registry,
		Persona:     cfg.AgentPersona,
		Description: cfg.AgentDescription,
		Language:    cfg.ResponseLanguage,
		MaxSteps:    cfg.MaxSteps,
	})
	if err != nil {
		slog.Error("Failed to create orchestrator", "error", err)
		os.Exit(1)
	}

	httpServer, err := api.NewServer(api.ServerConfig{
		Orchestrator: orchestrator,
		Store:        store,
		DB:           dbClient,
	})
	if err != nil {
		slog.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
			errCh <- err
		}
	}()
	slog.Info("Parley started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("Shutdown complete")
}

// buildRegistry assembles the tool set: think is always present,
// web_search is always available (the default backend needs no
// credentials), rag_search only when a persist directory is set.
func buildRegistry(cfg *config.Config) (*tools.Registry, error) {
	set := []tools.Tool{
		tools.NewThinkTool(),
		tools.NewWebSearchTool(tools.WebSearchConfig{
			SearXNGURL:  cfg.SearXNGURL,
			BraveAPIKey: cfg.BraveAPIKey,
		}),
	}
	if cfg.RAGPersistDir != "" {
		rag, err := tools.NewRAGSearchTool(tools.RAGSearchConfig{
			PersistDir: cfg.RAGPersistDir,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rag_search: %w", err)
		}
		set = append(set, rag)
	}
	return tools.NewRegistry(set...)
}
