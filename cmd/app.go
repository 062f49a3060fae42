package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vzahanych/weather-cli/internal/cache"
	"github.com/vzahanych/weather-cli/internal/config"
	"github.com/vzahanych/weather-cli/internal/lookup"
	"github.com/vzahanych/weather-cli/internal/metrics"
	"github.com/vzahanych/weather-cli/internal/service"
	"github.com/vzahanych/weather-cli/pkg/logger"
	"github.com/vzahanych/weather-cli/pkg/telemetry"
	"go.uber.org/zap"
)

// application holds everything a command needs once flags are parsed.
type application struct {
	cfg      *config.Config
	log      *zap.Logger
	tele     *telemetry.Telemetry
	metrics  *metrics.Metrics
	store    cache.Store
	cache    *cache.Cache
	resolver *lookup.Resolver
}

type globalOptions struct {
	configPath   string
	cacheFile    string
	cacheBackend string
	logLevel     string
}

func (a *application) init(ctx context.Context, opts *globalOptions, changed func(string) bool) error {
	// 1. Load config from file, .env and environment
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	// 2. Flags win over everything else
	if changed("cache-file") {
		cfg.Cache.Path = opts.cacheFile
	}
	if changed("cache-backend") {
		cfg.Cache.Backend = opts.cacheBackend
	}
	if changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.SetConfig(cfg)
	a.cfg = cfg

	// 3. Logger, tagged with a per-invocation id
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log.With(zap.String("run_id", uuid.NewString()))

	// 4. Telemetry is optional; a broken exporter must not block a lookup
	a.tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		a.log.Warn("Failed to initialize telemetry", zap.Error(err))
		a.tele = nil
	}

	a.metrics = metrics.New()

	// 5. Cache and upstream client
	a.store, err = cache.OpenStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	a.cache = cache.New(a.store, cfg.Cache.TTLDuration(), a.log)
	a.cache.SetMetricsRecorder(a.metrics)

	svc := service.NewOpenMeteoServiceWithConfig(cfg.Weather, a.log, a.tele)
	svc.SetMetricsRecorder(a.metrics)

	a.resolver = lookup.NewResolver(a.cache, svc, a.log, a.tele)

	a.log.Debug("Initialized",
		zap.String("cache", a.store.Location()),
		zap.Duration("cache_ttl", a.cache.TTL()),
		zap.Bool("telemetry_enabled", a.tele.IsEnabled()))

	return nil
}

// close flushes everything the run produced. Safe to call on a partially
// initialized application.
func (a *application) close(ctx context.Context) {
	if a.log == nil {
		return
	}

	if a.cfg != nil {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
			a.log.Warn("Failed to write metrics", zap.Error(err))
		}
	}

	if err := a.tele.Shutdown(ctx); err != nil {
		a.log.Warn("Failed to flush telemetry", zap.Error(err))
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("Failed to close cache store", zap.Error(err))
		}
	}

	_ = a.log.Sync()
}
