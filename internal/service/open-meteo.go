package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vzahanych/weather-cli/internal/config"
	"github.com/vzahanych/weather-cli/internal/models"
	"github.com/vzahanych/weather-cli/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrUpstream     = errors.New("upstream request failed")
)

const (
	EndpointGeocoding = "geocoding"
	EndpointForecast  = "forecast"
)

// UpstreamRecorder receives one call per HTTP round trip.
type UpstreamRecorder interface {
	RecordUpstreamCall(ctx context.Context, endpoint, status string, d time.Duration)
}

type OpenMeteoService struct {
	geocodingURL string
	forecastURL  string
	language     string
	client       *http.Client
	logger       *zap.Logger
	tele         *telemetry.Telemetry
	metrics      UpstreamRecorder
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
	} `json:"results"`
}

func NewOpenMeteoServiceWithConfig(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenMeteoService {
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenMeteoService{
		geocodingURL: strings.TrimRight(cfg.GeocodingURL, "/"),
		forecastURL:  strings.TrimRight(cfg.ForecastURL, "/"),
		language:     cfg.Language,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		tele:   tele,
	}
}

func (s *OpenMeteoService) SetMetricsRecorder(metrics UpstreamRecorder) {
	s.metrics = metrics
}

func (s *OpenMeteoService) Name() string {
	return "open-meteo"
}

// GeocodeCity returns the best match for name. ErrCityNotFound is returned
// when the geocoder has no results.
func (s *OpenMeteoService) GeocodeCity(ctx context.Context, name string) (*models.Location, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "open-meteo.GeocodeCity")
	defer span.End()
	span.SetAttributes(attribute.String("city", name))

	u, err := url.Parse(s.geocodingURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid geocoding URL: %w", err)
	}

	q := u.Query()
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", s.language)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	var resp geocodingResponse
	if err := s.getJSON(ctx, EndpointGeocoding, u, &resp); err != nil {
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}

	if len(resp.Results) == 0 {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, name)
	}

	r := resp.Results[0]
	country := r.Country
	if country == "" {
		country = "N/A"
	}

	span.SetAttributes(attribute.Bool("found", true))
	s.logger.Debug("City geocoded",
		zap.String("city", name),
		zap.String("name", r.Name),
		zap.Float64("lat", r.Latitude),
		zap.Float64("lon", r.Longitude))

	return &models.Location{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Name:      r.Name,
		Country:   country,
	}, nil
}

// CurrentWeather fetches the current conditions at lat/lon.
func (s *OpenMeteoService) CurrentWeather(ctx context.Context, lat, lon float64) (*models.Forecast, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "open-meteo.CurrentWeather")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	)

	u, err := url.Parse(s.forecastURL + "/forecast")
	if err != nil {
		return nil, fmt.Errorf("invalid forecast URL: %w", err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	var forecast models.Forecast
	if err := s.getJSON(ctx, EndpointForecast, u, &forecast); err != nil {
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}

	s.logger.Debug("Forecast fetched",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("weathercode", forecast.CurrentWeather.WeatherCode))

	return &forecast, nil
}

func (s *OpenMeteoService) getJSON(ctx context.Context, endpoint string, u *url.URL, dst any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.record(ctx, endpoint, "error", start)
		return err
	}
	defer resp.Body.Close()

	s.record(ctx, endpoint, statusLabel(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}

func (s *OpenMeteoService) record(ctx context.Context, endpoint, status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordUpstreamCall(ctx, endpoint, status, time.Since(start))
	}
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
