// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"supplyplan/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info.
const Version = "0.1.0"

// HealthChecker reports database reachability and pool statistics.
type HealthChecker interface {
	Health(ctx context.Context) (postgres.PoolStats, error)
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      HealthChecker
	storage string
}

// NewHealthHandler creates a health handler. A nil checker means the
// in-memory store is in use.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	storage := "postgres"
	if db == nil {
		storage = "memory"
	}
	return &HealthHandler{db: db, storage: storage}
}

// Live handles the liveness check (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles the readiness check (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"checks": map[string]string{"storage": "memory"},
		})
		return
	}

	if _, err := h.db.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "supplyplan",
		"version": Version,
		"storage": h.storage,
	}
	if h.db != nil {
		if stat, err := h.db.Health(c.Request.Context()); err == nil {
			body["database"] = map[string]any{
				"total_conns":    stat.TotalConns,
				"acquired_conns": stat.AcquiredConns,
				"idle_conns":     stat.IdleConns,
				"max_conns":      stat.MaxConns,
			}
		}
	}
	c.JSON(http.StatusOK, body)
}
