package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bomatic/bomatic-server/internal/stt"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db          *gorm.DB
	sttProvider stt.Provider
	serviceName string
}

// NewHealthHandler creates the health handler. db may be nil when the
// service runs without persistence.
func NewHealthHandler(db *gorm.DB, sttProvider stt.Provider, serviceName string) *HealthHandler {
	return &HealthHandler{db: db, sttProvider: sttProvider, serviceName: serviceName}
}

// Health reports overall service health including dependency checks.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "up"
		}
	}
	if h.sttProvider != nil {
		if h.sttProvider.IsAvailable(ctx) {
			checks["stt"] = "up"
		} else {
			checks["stt"] = "down"
			healthy = false
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"service": h.serviceName,
		"status":  state,
		"checks":  checks,
	})
}

// Alive is the liveness probe: the process is running.
func (h *HealthHandler) Alive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready is the readiness probe: dependencies needed to serve traffic are up.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
