package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpenMeteo struct {
	*httptest.Server
	geocodeCalls  atomic.Int32
	forecastCalls atomic.Int32
}

func newFakeOpenMeteo(t *testing.T, forecastStatus int) *fakeOpenMeteo {
	t.Helper()

	f := &fakeOpenMeteo{}
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		f.geocodeCalls.Add(1)
		if r.URL.Query().Get("name") == "Atlantis" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"name": "Berlin", "country": "Germany", "latitude": 52.52437, "longitude": 13.41053,
			}},
		})
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		f.forecastCalls.Add(1)
		if forecastStatus != http.StatusOK {
			w.WriteHeader(forecastStatus)
			return
		}
		_, _ = w.Write([]byte(`{"latitude":52.52,"longitude":13.41,"timezone":"Europe/Berlin",
			"current_weather":{"temperature":7.5,"windspeed":12.1,"winddirection":250,"weathercode":61,"time":"2025-03-01T12:00"}}`))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)

	t.Setenv("WEATHER_WEATHER_GEOCODING_URL", f.URL)
	t.Setenv("WEATHER_WEATHER_FORECAST_URL", f.URL)
	return f
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), &out, args)
	return out.String(), err
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "For help use: weather --help")
	assert.NoFileExists(t, "weather_cache.json")
}

func TestRun_OnlyUnrelatedFlags(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := runCLI(t, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Specify --city or --coord")
}

func TestRun_ClearCacheWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := runCLI(t, "--clear-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache does not exist")
}

func TestRun_CityThenCache(t *testing.T) {
	chdir(t, t.TempDir())
	api := newFakeOpenMeteo(t, http.StatusOK)

	out, err := runCLI(t, "--city", "Berlin")
	require.NoError(t, err)
	assert.Contains(t, out, "Coordinates fetched from API")
	assert.Contains(t, out, "Location: Berlin, Germany")
	assert.Contains(t, out, "Coordinates: 52.5244, 13.4105")
	assert.Contains(t, out, "Weather data fetched from API")
	assert.Contains(t, out, "Temperature: 7.5°C")
	assert.Contains(t, out, "Description: Slight rain")
	assert.FileExists(t, "weather_cache.json")

	out, err = runCLI(t, "--city", "Berlin")
	require.NoError(t, err)
	assert.Contains(t, out, "Coordinates found in cache")
	assert.Contains(t, out, "Weather data loaded from cache")
	assert.Equal(t, int32(1), api.geocodeCalls.Load())
	assert.Equal(t, int32(1), api.forecastCalls.Load())

	out, err = runCLI(t, "--cache-info")
	require.NoError(t, err)
	assert.Contains(t, out, "Entries: 2")
	assert.Contains(t, out, "coords_berlin")
	assert.Contains(t, out, "weather_52.5244_13.4105")

	out, err = runCLI(t, "--clear-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared")
	assert.NoFileExists(t, "weather_cache.json")
}

func TestRun_CoordinatesWithNegativeLongitude(t *testing.T) {
	chdir(t, t.TempDir())
	api := newFakeOpenMeteo(t, http.StatusOK)

	out, err := runCLI(t, "--coord", "40.7128", "-74.0060")
	require.NoError(t, err)
	assert.Contains(t, out, "Weather data fetched from API")
	assert.Equal(t, int32(0), api.geocodeCalls.Load())

	raw, err := os.ReadFile("weather_cache.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"weather_40.7128_-74.0060"`)
}

func TestRun_LookupErrorsAreCaught(t *testing.T) {
	chdir(t, t.TempDir())
	newFakeOpenMeteo(t, http.StatusInternalServerError)

	out, err := runCLI(t, "--city", "Atlantis")
	require.NoError(t, err)
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "Atlantis")

	out, err = runCLI(t, "--coord", "10", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "500")

	out, err = runCLI(t, "--coord", "95", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Error:")
}

func TestRun_UncaughtErrors(t *testing.T) {
	chdir(t, t.TempDir())

	tests := [][]string{
		{"--city", "Berlin", "--coord", "1", "2"},
		{"--coord", "55.7"},
		{"--unknown"},
		{"--config", "missing.yaml", "--cache-info"},
		{"--cache-backend", "redis", "--cache-info"},
	}
	for _, args := range tests {
		_, err := runCLI(t, args...)
		assert.Error(t, err, args)
	}
}
