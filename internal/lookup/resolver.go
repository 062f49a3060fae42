package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vzahanych/weather-cli/internal/models"
	"github.com/vzahanych/weather-cli/internal/service"
	"github.com/vzahanych/weather-cli/internal/validation"
	"github.com/vzahanych/weather-cli/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ErrEmptyCity = errors.New("city name is empty")

// Source tells where a resolved value came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceAPI   Source = "api"
)

// Cache is the subset of cache.Cache the resolver needs.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, value any) error
}

// Report is the outcome of a city lookup.
type Report struct {
	Location       *models.Location `json:"location,omitempty"`
	Forecast       *models.Forecast `json:"forecast"`
	LocationSource Source           `json:"location_source,omitempty"`
	WeatherSource  Source           `json:"weather_source"`
}

// Resolver runs the cache-or-fetch flow: city -> coordinates -> weather.
type Resolver struct {
	cache   Cache
	service service.WeatherService
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewResolver(cache Cache, svc service.WeatherService, logger *zap.Logger, tele *telemetry.Telemetry) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cache:   cache,
		service: svc,
		logger:  logger,
		tele:    tele,
	}
}

// CoordsKey is the cache key for a geocoded city.
func CoordsKey(city string) string {
	return "coords_" + strings.ToLower(city)
}

// WeatherKey is the cache key for the weather at lat/lon, rounded to 4 decimals.
func WeatherKey(lat, lon float64) string {
	return fmt.Sprintf("weather_%.4f_%.4f", lat, lon)
}

func (r *Resolver) LocateCity(ctx context.Context, city string) (*models.Location, Source, error) {
	ctx, span := r.tele.GetTracer().Start(ctx, "lookup.LocateCity")
	defer span.End()

	city = strings.TrimSpace(city)
	if city == "" {
		return nil, "", ErrEmptyCity
	}

	key := CoordsKey(city)
	span.SetAttributes(attribute.String("cache_key", key))

	var loc models.Location
	if r.fromCache(ctx, key, &loc) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &loc, SourceCache, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	fetched, err := r.service.GeocodeCity(ctx, city)
	if err != nil {
		r.logger.Info("Geocoding failed", zap.String("city", city), zap.Error(err))
		return nil, "", err
	}

	r.store(ctx, key, fetched)
	return fetched, SourceAPI, nil
}

func (r *Resolver) WeatherAt(ctx context.Context, lat, lon float64) (*models.Forecast, Source, error) {
	ctx, span := r.tele.GetTracer().Start(ctx, "lookup.WeatherAt")
	defer span.End()

	if err := validation.ValidateCoordinates(lat, lon); err != nil {
		return nil, "", err
	}

	key := WeatherKey(lat, lon)
	span.SetAttributes(attribute.String("cache_key", key))

	var forecast models.Forecast
	if r.fromCache(ctx, key, &forecast) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &forecast, SourceCache, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	fetched, err := r.service.CurrentWeather(ctx, lat, lon)
	if err != nil {
		r.logger.Info("Forecast failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return nil, "", err
	}

	r.store(ctx, key, fetched)
	return fetched, SourceAPI, nil
}

func (r *Resolver) WeatherForCity(ctx context.Context, city string) (*Report, error) {
	loc, locSource, err := r.LocateCity(ctx, city)
	if err != nil {
		return nil, err
	}

	forecast, weatherSource, err := r.WeatherAt(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}

	return &Report{
		Location:       loc,
		Forecast:       forecast,
		LocationSource: locSource,
		WeatherSource:  weatherSource,
	}, nil
}

// fromCache decodes the cached payload into dst. A payload that no longer
// decodes counts as a miss and will be overwritten by the next fetch.
func (r *Resolver) fromCache(ctx context.Context, key string, dst any) bool {
	raw, ok := r.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("Ignoring undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *Resolver) store(ctx context.Context, key string, value any) {
	if err := r.cache.Set(ctx, key, value); err != nil {
		r.logger.Warn("Failed to cache value", zap.String("key", key), zap.Error(err))
	}
}
