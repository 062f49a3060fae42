package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/vzahanych/weather-cli/internal/cache"
	"github.com/vzahanych/weather-cli/internal/lookup"
	"github.com/vzahanych/weather-cli/internal/models"
)

// Printer renders command output. The first write error sticks and is
// reported by Err; later writes are skipped.
type Printer struct {
	w   io.Writer
	err error
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) Usage(program string) {
	p.printf("For help use: %s --help\n", program)
	p.printf("\nCommon commands:\n")
	p.printf("  %s --city Moscow               # weather for a city\n", program)
	p.printf("  %s --coord 55.7558 37.6173     # weather for coordinates\n", program)
	p.printf("  %s --cache-info                # show cache contents\n", program)
	p.printf("  %s --clear-cache               # delete the cache\n", program)
}

func (p *Printer) MissingTarget() {
	p.printf("❌ Specify --city or --coord to get the weather\n")
	p.printf("ℹ️  Use --help to see all options\n")
}

func (p *Printer) SearchingCity(city string) {
	p.printf("🔍 Looking up coordinates for: %s\n", city)
}

func (p *Printer) LocationSource(src lookup.Source) {
	if src == lookup.SourceCache {
		p.printf("📍 Coordinates found in cache\n")
		return
	}
	p.printf("📍 Coordinates fetched from API\n")
}

func (p *Printer) Location(loc *models.Location) {
	p.printf("📍 Location: %s, %s\n", loc.Name, loc.Country)
	p.printf("📌 Coordinates: %.4f, %.4f\n", loc.Latitude, loc.Longitude)
}

func (p *Printer) WeatherSource(src lookup.Source) {
	if src == lookup.SourceCache {
		p.printf("🌤️  Weather data loaded from cache\n")
		return
	}
	p.printf("✅ Weather data fetched from API\n")
}

func (p *Printer) Weather(reading models.WeatherReading) {
	rule := strings.Repeat("=", 40)

	p.printf("\n%s\n", rule)
	p.printf("📊 CURRENT WEATHER\n")
	p.printf("%s\n", rule)
	p.printf("🌡️  Temperature: %v°C\n", reading.Temperature)
	p.printf("💨 Wind speed: %v km/h\n", reading.WindSpeed)
	p.printf("🧭 Wind direction: %v°\n", reading.WindDirection)
	p.printf("📝 Weather code: %d\n", reading.WeatherCode)
	p.printf("🕒 Time: %s\n", reading.Time)
	p.printf("☁️  Description: %s\n", Describe(reading.WeatherCode))
	p.printf("%s\n", rule)
}

func (p *Printer) CacheInfo(info *cache.Info) {
	if !info.Exists {
		p.printf("📭 Cache is empty\n")
		return
	}

	p.printf("📊 CACHE INFO\n")
	p.printf("%s\n", strings.Repeat("=", 30))
	p.printf("📁 Cache location: %s\n", info.Location)
	p.printf("📈 Entries: %d\n", len(info.Entries))
	p.printf("\n🗂️  Cached keys:\n")
	for _, e := range info.Entries {
		state := "fresh"
		if !e.Fresh {
			state = "expired"
		}
		p.printf("  - %s (cached: %s, %s)\n", e.Key, e.Timestamp, state)
	}
}

func (p *Printer) CacheCleared(removed bool) {
	if removed {
		p.printf("✅ Cache cleared\n")
		return
	}
	p.printf("ℹ️  Cache does not exist\n")
}

func (p *Printer) Error(err error) {
	p.printf("❌ Error: %v\n", err)
}
