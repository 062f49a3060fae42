package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cli/internal/lookup"
	"github.com/vzahanych/weather-cli/internal/models"
	"github.com/vzahanych/weather-cli/internal/presenter"
	"github.com/vzahanych/weather-cli/internal/server/utils"
	"github.com/vzahanych/weather-cli/internal/service"
	"github.com/vzahanych/weather-cli/internal/validation"
	"go.uber.org/zap"
)

type Resolver interface {
	LocateCity(ctx context.Context, city string) (*models.Location, lookup.Source, error)
	WeatherAt(ctx context.Context, lat, lon float64) (*models.Forecast, lookup.Source, error)
}

type WeatherHandler struct {
	resolver Resolver
	logger   *zap.Logger
}

func NewWeatherHandler(resolver Resolver, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		resolver: resolver,
		logger:   logger,
	}
}

func (h *WeatherHandler) GetWeather(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req WeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	byCity := req.City != "" && req.Lat == nil && req.Lon == nil
	byCoords := req.City == "" && req.Lat != nil && req.Lon != nil
	if !byCity && !byCoords {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Provide either city or both lat and lon",
			Code:  "INVALID_PARAMS",
		})
		return
	}

	resp := WeatherResponse{Sources: map[string]lookup.Source{}}
	var lat, lon float64

	if byCity {
		loc, src, err := h.resolver.LocateCity(ctx, req.City)
		if err != nil {
			h.writeError(c, reqLogger, err)
			return
		}
		resp.Location = loc
		resp.Sources["location"] = src
		lat, lon = loc.Latitude, loc.Longitude
	} else {
		lat, lon = *req.Lat, *req.Lon
	}

	forecast, src, err := h.resolver.WeatherAt(ctx, lat, lon)
	if err != nil {
		h.writeError(c, reqLogger, err)
		return
	}

	resp.Weather = forecast.CurrentWeather
	resp.Description = presenter.Describe(forecast.CurrentWeather.WeatherCode)
	resp.Timezone = forecast.Timezone
	resp.Sources["weather"] = src

	reqLogger.Info("Weather request completed",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("weather_source", string(src)))

	c.JSON(http.StatusOK, resp)
}

func (h *WeatherHandler) writeError(c *gin.Context, reqLogger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrCityNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "City not found",
			Code:    "CITY_NOT_FOUND",
			Details: err.Error(),
		})
	case errors.Is(err, validation.ErrInvalidCoordinates), errors.Is(err, lookup.ErrEmptyCity):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
	default:
		reqLogger.Error("Failed to get weather data", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Failed to fetch weather data",
			Code:    "UPSTREAM_ERROR",
			Details: err.Error(),
		})
	}
}
