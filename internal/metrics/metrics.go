package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the tool exports. Each instance has its own
// registry so tests and the serve mode never share state. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	// Cache lookups by key type (coords, weather) and result (hit, miss, expired).
	CacheLookupsTotal *prometheus.CounterVec

	// Upstream calls by endpoint (geocoding, forecast) and status label.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency. Watch for p95 approaching the request timeout.
	UpstreamDuration *prometheus.HistogramVec

	// Serve mode only.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_cache_lookups_total",
				Help: "Cache lookups by key type and result",
			},
			[]string{"type", "result"},
		),
		UpstreamCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_upstream_calls_total",
				Help: "Calls to the Open-Meteo endpoints",
			},
			[]string{"endpoint", "status"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weather_upstream_duration_seconds",
				Help:    "Open-Meteo request latency in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_http_requests_total",
				Help: "HTTP requests served in serve mode",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weather_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.CacheLookupsTotal,
		m.UpstreamCallsTotal, m.UpstreamDuration,
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)

	return m
}

func (m *Metrics) RecordCacheHit(ctx context.Context, cacheType string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(cacheType, "hit").Inc()
}

func (m *Metrics) RecordCacheMiss(ctx context.Context, cacheType string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(cacheType, "miss").Inc()
}

func (m *Metrics) RecordCacheExpired(ctx context.Context, cacheType string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(cacheType, "expired").Inc()
}

func (m *Metrics) RecordUpstreamCall(ctx context.Context, endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamCallsTotal.WithLabelValues(endpoint, status).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
