package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-cli/internal/presenter"
)

type weatherOptions struct {
	city       string
	coord      coordValue
	cacheInfo  bool
	clearCache bool
}

func rootCmd(app *application, out io.Writer) *cobra.Command {
	global := &globalOptions{}
	opts := &weatherOptions{}

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Current weather for a city or coordinates",
		Long: `Resolve a city name or coordinates to the current weather using Open-Meteo.
Geocoding and forecast results are cached locally for 30 minutes.`,
		Example: `  weather --city Moscow
  weather --coord 55.7558 37.6173
  weather --coord=40.7128,-74.0060
  weather --cache-info
  weather --clear-cache`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd.Context(), global, cmd.Flags().Changed)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeather(cmd, app, opts)
		},
	}

	cmd.SetOut(out)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&global.configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")
	pf.StringVar(&global.cacheFile, "cache-file", "", "cache file path for the file backend (default: weather_cache.json)")
	pf.StringVar(&global.cacheBackend, "cache-backend", "", "cache backend: file, sqlite or memcached")
	pf.StringVar(&global.logLevel, "log-level", "", "log level: debug, info, warn or error")

	f := cmd.Flags()
	f.StringVar(&opts.city, "city", "", `city name (e.g. "Moscow")`)
	f.Var(&opts.coord, "coord", "latitude and longitude (e.g. 55.7558 37.6173)")
	f.BoolVar(&opts.cacheInfo, "cache-info", false, "show cache contents")
	f.BoolVar(&opts.clearCache, "clear-cache", false, "delete the cache")
	cmd.MarkFlagsMutuallyExclusive("city", "coord")

	cmd.AddCommand(serverCmd(app))

	return cmd
}

// Execute runs the CLI against os.Args. Errors reaching this point are the
// ones the dispatcher does not handle and should turn into exit status 1.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Stdout, os.Args[1:])
}

func run(ctx context.Context, out io.Writer, args []string) error {
	app := &application{}
	defer app.close(context.Background())

	cmd := rootCmd(app, out)
	cmd.SetArgs(normalizeCoordArgs(args))
	return cmd.ExecuteContext(ctx)
}

// runWeather dispatches the root flags the same way every time: clear-cache,
// then cache-info, then city, then coordinates. Lookup failures are printed
// and do not fail the command.
func runWeather(cmd *cobra.Command, app *application, opts *weatherOptions) error {
	ctx := cmd.Context()
	p := presenter.NewPrinter(cmd.OutOrStdout())

	switch {
	case cmd.Flags().NFlag() == 0:
		p.Usage(cmd.Root().Name())

	case opts.clearCache:
		removed, err := app.cache.Clear(ctx)
		if err != nil {
			p.Error(err)
			break
		}
		p.CacheCleared(removed)

	case opts.cacheInfo:
		info, err := app.cache.Info(ctx)
		if err != nil {
			p.Error(err)
			break
		}
		p.CacheInfo(info)

	case opts.city != "":
		weatherForCity(ctx, app, p, opts.city)

	case opts.coord.IsSet():
		if !opts.coord.Complete() {
			return fmt.Errorf("--coord needs both latitude and longitude")
		}
		lat, lon := opts.coord.Values()
		weatherAt(ctx, app, p, lat, lon)

	default:
		p.MissingTarget()
	}

	return p.Err()
}

func weatherForCity(ctx context.Context, app *application, p *presenter.Printer, city string) {
	p.SearchingCity(city)

	loc, src, err := app.resolver.LocateCity(ctx, city)
	if err != nil {
		p.Error(err)
		return
	}

	p.LocationSource(src)
	p.Location(loc)

	weatherAt(ctx, app, p, loc.Latitude, loc.Longitude)
}

func weatherAt(ctx context.Context, app *application, p *presenter.Printer, lat, lon float64) {
	forecast, src, err := app.resolver.WeatherAt(ctx, lat, lon)
	if err != nil {
		p.Error(err)
		return
	}

	p.WeatherSource(src)
	p.Weather(forecast.CurrentWeather)
}
