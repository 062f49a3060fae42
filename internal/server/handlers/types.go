package handlers

import (
	"github.com/vzahanych/weather-cli/internal/lookup"
	"github.com/vzahanych/weather-cli/internal/models"
)

// WeatherRequest selects either a city or a lat/lon pair.
type WeatherRequest struct {
	City string   `form:"city"`
	Lat  *float64 `form:"lat"`
	Lon  *float64 `form:"lon"`
}

type WeatherResponse struct {
	Location    *models.Location         `json:"location,omitempty"`
	Weather     models.WeatherReading    `json:"weather"`
	Description string                   `json:"description"`
	Timezone    string                   `json:"timezone,omitempty"`
	Sources     map[string]lookup.Source `json:"sources"`
}

type CacheClearResponse struct {
	Cleared bool `json:"cleared"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp,omitempty"`
}
