package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listSessions(c *gin.Context) {
	ids, err := s.cfg.Store.ListSessions(c.Request.Context())
	if err != nil {
		s.storageFailure(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ids})
}

func (s *Server) sessionInfo(c *gin.Context) {
	id := c.Param("id")
	count, err := s.cfg.Store.MessageCount(c.Request.Context(), id)
	if err != nil {
		s.storageFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":    id,
		"message_count": count,
	})
}

func (s *Server) clearSession(c *gin.Context) {
	if err := s.cfg.Store.Clear(c.Request.Context(), c.Param("id")); err != nil {
		s.storageFailure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.cfg.Store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.storageFailure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) storageFailure(c *gin.Context, err error) {
	s.logger.Error("session store operation failed",
		"path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
}
