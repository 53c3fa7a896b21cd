package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"medrecon/internal/logger"
)

// ReadinessChecker reports whether the server's dependencies are reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checker ReadinessChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.checker.Ready(c.Request.Context()); err != nil {
		log := logger.Component("http")
		log.Warn().Err(err).Msg("readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
