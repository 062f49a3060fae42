package service

import (
	"context"

	"github.com/vzahanych/weather-cli/internal/models"
)

type WeatherService interface {
	GeocodeCity(ctx context.Context, name string) (*models.Location, error)
	CurrentWeather(ctx context.Context, lat, lon float64) (*models.Forecast, error)
	Name() string
}
