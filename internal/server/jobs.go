package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunJobs triggers one scheduler pass on demand. Handy when operating
// the monolith without waiting for the next tick; both jobs are safe to
// repeat.
func (s *Server) RunJobs(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{
			"type":    "scheduler_unavailable",
			"message": "scheduler is not running in this process",
		}})
		return
	}

	if err := s.scheduler.RunOnce(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "completed"}})
}
