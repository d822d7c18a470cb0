package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stacklok/appearance-server/internal/app"
	"github.com/stacklok/appearance-server/internal/config"
	"github.com/stacklok/appearance-server/internal/logging"
	"github.com/stacklok/appearance-server/internal/telemetry"
	"github.com/stacklok/appearance-server/internal/versions"
)

const (
	defaultGracefulTimeout = 30 * time.Second // Enough to flush pending appearance saves
	defaultAddress         = ":8080"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the appearance API server",
		Long: `Start the appearance API server.

The optional configuration file (--config) selects:
- The storage backend (memory or sqlite) and its settings
- Save and send debounce delays and the background worker pool
- Telemetry export (OTLP traces, OTLP or Prometheus metrics)

Every flag can also be set through the environment, e.g. APPEARANCE_ADDRESS.`,
		RunE: runServe,
	}

	serveCmd.Flags().String("address", defaultAddress, "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	serveCmd.Flags().Duration("shutdown-timeout", defaultGracefulTimeout, "Time allowed to drain requests and flush saves")

	return serveCmd
}

// serveSettings resolves the serve flags, letting APPEARANCE_* variables fill in
// flags that were not given on the command line
func serveSettings(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(logging.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return v, nil
}

// loadConfig reads the configuration file, or returns the defaults when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		slog.Info("No configuration file given, using in-memory storage and default settings")
		return config.Default(), nil
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	v, err := serveSettings(cmd.Flags())
	if err != nil {
		return err
	}
	address := v.GetString("address")
	configPath := v.GetString("config")
	shutdownTimeout := v.GetDuration("shutdown-timeout")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	slog.Info("Loaded configuration",
		"instance", cfg.GetInstanceName(),
		"storage", cfg.GetStorage().GetType())

	telemetryCfg := cfg.Telemetry
	if telemetryCfg != nil && telemetryCfg.ServiceVersion == "" {
		telemetryCfg.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(telemetryCfg))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []app.AppearanceAppOptions{
		app.WithConfig(cfg),
		app.WithAddress(address),
		app.WithTracerProvider(tel.TracerProvider()),
		app.WithMeterProvider(tel.MeterProvider()),
	}
	if handler := tel.MetricsHandler(); handler != nil {
		opts = append(opts, app.WithMetricsHandler(handler))
	}

	appearanceApp, err := app.NewAppearanceApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	return serveUntilSignal(ctx, appearanceApp, shutdownTimeout)
}

// serveUntilSignal runs the app until SIGINT or SIGTERM arrives, ctx ends or the app
// fails on its own
func serveUntilSignal(ctx context.Context, appearanceApp *app.AppearanceApp, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- appearanceApp.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context canceled")
	case err := <-errCh:
		if err != nil {
			stopErr := appearanceApp.Stop(shutdownTimeout)
			return errors.Join(fmt.Errorf("server stopped: %w", err), stopErr)
		}
	}

	return appearanceApp.Stop(shutdownTimeout)
}
