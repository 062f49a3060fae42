package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-cli/internal/server"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func serverCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve weather lookups over HTTP",
		Long: `Start an HTTP server exposing the same cached lookup flow as the CLI,
plus cache inspection and a prometheus /metrics endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), app)
		},
	}
}

func runServer(ctx context.Context, app *application) error {
	cfg := app.cfg

	app.log.Info("Starting weather server",
		zap.String("cache", app.store.Location()),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	srv := server.NewServer(cfg.Server, app.resolver, app.cache, app.metrics, app.log, app.tele)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			app.log.Error("Server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		app.log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		app.log.Info("Server shutdown complete")
		return nil
	}
}
