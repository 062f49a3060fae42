package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cli/internal/server/utils"
	"go.uber.org/zap"
)

type HealthHandler struct {
	cache     CacheManager
	logger    *zap.Logger
	startTime time.Time
}

func NewHealthHandler(cache CacheManager, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cache:     cache,
		logger:    logger,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness fails while the cache store cannot be read.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if _, err := h.cache.Info(utils.GetContextFromGinContext(c)); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "not_ready",
			Uptime: time.Since(h.startTime).String(),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
