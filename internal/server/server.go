package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cli/internal/config"
	"github.com/vzahanych/weather-cli/internal/metrics"
	"github.com/vzahanych/weather-cli/internal/server/handlers"
	"github.com/vzahanych/weather-cli/internal/server/middlewares"
	"github.com/vzahanych/weather-cli/pkg/telemetry"
	"go.uber.org/zap"
)

// Server exposes the lookup flow over HTTP for long-running use.
type Server struct {
	engine  *gin.Engine
	server  *http.Server
	cfg     config.ServerConfig
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics *metrics.Metrics
}

func NewServer(
	cfg config.ServerConfig,
	resolver handlers.Resolver,
	cache handlers.CacheManager,
	m *metrics.Metrics,
	logger *zap.Logger,
	tele *telemetry.Telemetry,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(middlewares.MetricsMiddleware(m))

	s := &Server{
		engine:  engine,
		cfg:     cfg,
		logger:  logger,
		tele:    tele,
		metrics: m,
	}

	s.setupRoutes(resolver, cache)

	return s
}

func (s *Server) setupRoutes(resolver handlers.Resolver, cache handlers.CacheManager) {
	// Business endpoints
	s.engine.GET("/weather", handlers.NewWeatherHandler(resolver, s.logger).GetWeather)

	cacheHandler := handlers.NewCacheHandler(cache, s.logger)
	s.engine.GET("/cache", cacheHandler.Info)
	s.engine.DELETE("/cache", cacheHandler.Clear)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(cache, s.logger)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
