package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cli/internal/cache"
	"github.com/vzahanych/weather-cli/internal/server/utils"
	"go.uber.org/zap"
)

type CacheManager interface {
	Info(ctx context.Context) (*cache.Info, error)
	Clear(ctx context.Context) (bool, error)
}

type CacheHandler struct {
	cache  CacheManager
	logger *zap.Logger
}

func NewCacheHandler(c CacheManager, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  c,
		logger: logger,
	}
}

func (h *CacheHandler) Info(c *gin.Context) {
	info, err := h.cache.Info(utils.GetContextFromGinContext(c))
	if err != nil {
		h.logger.Error("Failed to read cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to read cache",
			Code:    "CACHE_ERROR",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *CacheHandler) Clear(c *gin.Context) {
	removed, err := h.cache.Clear(utils.GetContextFromGinContext(c))
	if err != nil {
		h.logger.Error("Failed to clear cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to clear cache",
			Code:    "CACHE_ERROR",
			Details: err.Error(),
		})
		return
	}

	h.logger.Info("Cache cleared", zap.Bool("existed", removed))
	c.JSON(http.StatusOK, CacheClearResponse{Cleared: removed})
}
