// Package api exposes the agent over HTTP: an SSE ask endpoint,
// session management, and health.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/parley/pkg/agent"
	"github.com/codeready-toolchain/parley/pkg/database"
	"github.com/codeready-toolchain/parley/pkg/session"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// ServerConfig carries the server's collaborators.
type ServerConfig struct {
	Orchestrator *agent.Orchestrator
	Store        session.Store

	// DB is optional; when set, /health includes database status.
	DB *database.Client

	Logger *slog.Logger
}

// Server is the HTTP front of the service.
type Server struct {
	cfg    ServerConfig
	engine *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

// NewServer builds the router and handlers.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger), securityHeaders())

	s := &Server{cfg: cfg, engine: engine, logger: logger}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/ask", s.ask)
	v1.GET("/sessions", s.listSessions)
	v1.GET("/sessions/:id", s.sessionInfo)
	v1.POST("/sessions/:id/clear", s.clearSession)
	v1.DELETE("/sessions/:id", s.deleteSession)
}

// Handler returns the underlying handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on addr and serves until Shutdown or failure.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.logger.Info("http server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// StartWithListener serves on an existing listener, for tests that
// need an ephemeral port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.http = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
