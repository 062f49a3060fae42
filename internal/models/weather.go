package models

// Location is a geocoded place.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
}

// WeatherReading is the current_weather block of an Open-Meteo forecast.
type WeatherReading struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	WeatherCode   int     `json:"weathercode"`
	IsDay         int     `json:"is_day,omitempty"`
	Time          string  `json:"time"`
}

// Forecast is the part of the forecast response the tool keeps and caches.
type Forecast struct {
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Timezone       string         `json:"timezone,omitempty"`
	Elevation      float64        `json:"elevation,omitempty"`
	CurrentWeather WeatherReading `json:"current_weather"`
}
