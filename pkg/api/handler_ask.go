package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/codeready-toolchain/parley/pkg/models"
)

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`

	// Optional per-request overrides; zero values use the defaults.
	MaxSteps    int     `json:"max_steps"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Model       string  `json:"model"`
}

// ask runs the agent and streams its events as SSE frames: one frame
// per event, "event:" naming the variant, "data:" carrying its JSON
// fields. The stream ends with a "done" frame except when the client
// disconnects first.
func (s *Server) ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	events := s.cfg.Orchestrator.Run(c.Request.Context(), req.Question, req.SessionID, models.RunConfig{
		MaxSteps:    req.MaxSteps,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Model:       req.Model,
	})

	// c.Stream flushes after every callback; a slow client backpressures
	// the orchestrator through the bounded event channel.
	c.Stream(func(w io.Writer) bool {
		e, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(string(e.Type()), e)
		return true
	})
}
