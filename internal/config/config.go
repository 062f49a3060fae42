package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, ok := configValue.Load().(*Config)
	if !ok {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Server      ServerConfig    `mapstructure:"server"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
}

// WeatherConfig describes the upstream Open-Meteo endpoints. Timeout is in seconds.
type WeatherConfig struct {
	GeocodingURL string `mapstructure:"geocoding_url" validate:"required,url"`
	ForecastURL  string `mapstructure:"forecast_url" validate:"required,url"`
	Language     string `mapstructure:"language" validate:"required,min=2,max=5"`
	Timeout      int    `mapstructure:"timeout" validate:"gt=0"`
}

// CacheConfig selects the store backing the lookup cache. TTL is in seconds.
type CacheConfig struct {
	Backend    string          `mapstructure:"backend" validate:"oneof=file sqlite memcached"`
	Path       string          `mapstructure:"path" validate:"required_if=Backend file"`
	SQLitePath string          `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	TTL        int             `mapstructure:"ttl" validate:"gt=0"`
	Memcached  MemcachedConfig `mapstructure:"memcached"`
}

type MemcachedConfig struct {
	Addrs        string `mapstructure:"addrs"`
	Key          string `mapstructure:"key" validate:"required,max=250"`
	Timeout      int    `mapstructure:"timeout" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
}

// MetricsConfig controls the prometheus textfile written when a CLI run ends.
// An empty TextfilePath disables it.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Weather: WeatherConfig{
			GeocodingURL: "https://geocoding-api.open-meteo.com/v1",
			ForecastURL:  "https://api.open-meteo.com/v1",
			Language:     "en",
			Timeout:      10,
		},
		Cache: CacheConfig{
			Backend:    "file",
			Path:       "weather_cache.json",
			SQLitePath: "weather_cache.db",
			TTL:        1800,
			Memcached: MemcachedConfig{
				Addrs:        "localhost:11211",
				Key:          "weather_cache",
				Timeout:      1,
				MaxIdleConns: 2,
			},
		},
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "console",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
		},
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c WeatherConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}
