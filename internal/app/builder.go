package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/appearance-server/internal/api"
	"github.com/stacklok/appearance-server/internal/app/storage"
	"github.com/stacklok/appearance-server/internal/config"
	"github.com/stacklok/appearance-server/internal/coordinator"
	"github.com/stacklok/appearance-server/internal/presence"
	"github.com/stacklok/appearance-server/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	tracerName = "github.com/stacklok/appearance-server"
)

// AppearanceAppOptions is a function that configures the appearance app builder
type AppearanceAppOptions func(*appearanceAppConfig) error

// appearanceAppConfig collects the builder inputs.
// It supports dependency injection for testing while providing sensible defaults for production
type appearanceAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	clock          clock.WithTicker

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...AppearanceAppOptions) (*appearanceAppConfig, error) {
	cfg := &appearanceAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}

	return cfg, nil
}

// NewAppearanceApp wires storage, the presence hub, the coordinator and the HTTP server
func NewAppearanceApp(
	ctx context.Context,
	opts ...AppearanceAppOptions,
) (*AppearanceApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Create storage factory (single decision point for SQLite vs memory)
	if cfg.storageFactory == nil {
		var storageOpts []storage.SQLiteFactoryOption
		if cfg.tracerProvider != nil {
			storageOpts = append(storageOpts, storage.WithTracer(cfg.tracerProvider.Tracer(tracerName)))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, storageOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && cfg.storageFactory != nil {
			cfg.storageFactory.Cleanup()
		}
	}()

	hub := presence.NewHub()

	coord, err := buildCoordinator(ctx, cfg, hub)
	if err != nil {
		return nil, fmt.Errorf("failed to build appearance coordinator: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, coord, hub)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	storageFactory := cfg.storageFactory
	cancelFunc := func() {
		storageFactory.Cleanup()
		cancel()
	}

	return &AppearanceApp{
		config: cfg.config,
		components: &AppComponents{
			Coordinator: coord,
			Hub:         hub,
			Storage:     storageFactory,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancelFunc,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRequestTimeout bounds the time a handler may run
func WithRequestTimeout(d time.Duration) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithClock sets the clock driving deferred saves and sends (for testing)
func WithClock(clk clock.WithTicker) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		cfg.clock = clk
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and appearance metrics
func WithMeterProvider(mp metric.MeterProvider) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP, coordinator and storage spans
func WithTracerProvider(tp trace.TracerProvider) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves Prometheus metrics at /metrics
func WithMetricsHandler(h http.Handler) AppearanceAppOptions {
	return func(cfg *appearanceAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildCoordinator creates the stores and the appearance coordinator
func buildCoordinator(
	ctx context.Context,
	b *appearanceAppConfig,
	hub *presence.Hub,
) (coordinator.Coordinator, error) {
	slog.Info("Initializing appearance coordinator")

	assetStore, err := b.storageFactory.CreateAssetStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset store: %w", err)
	}
	inventoryStore, err := b.storageFactory.CreateInventoryStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory store: %w", err)
	}
	avatars, err := b.storageFactory.CreateAvatarService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar service: %w", err)
	}

	var coordOpts []coordinator.Option

	if b.meterProvider != nil {
		appearanceMetrics, err := telemetry.NewAppearanceMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create appearance metrics: %w", err)
		}
		coordinatorMetrics, err := telemetry.NewCoalescerMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create coalescer metrics: %w", err)
		}
		coordOpts = append(coordOpts,
			coordinator.WithAppearanceMetrics(appearanceMetrics),
			coordinator.WithCoalescerMetrics(coordinatorMetrics),
		)
		slog.Info("Appearance metrics enabled")
	}
	if b.tracerProvider != nil {
		coordOpts = append(coordOpts, coordinator.WithTracer(b.tracerProvider.Tracer(tracerName)))
	}
	if b.clock != nil {
		coordOpts = append(coordOpts, coordinator.WithClock(b.clock))
	}

	coord := coordinator.New(b.config.GetAppearance(), assetStore, inventoryStore, avatars, hub, coordOpts...)
	slog.Info("Appearance coordinator initialized")
	return coord, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *appearanceAppConfig,
	coord coordinator.Coordinator,
	hub *presence.Hub,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Tracing wraps everything so spans cover the whole request
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
		slog.Info("HTTP tracing middleware enabled")
	}

	// Add metrics middleware if meter provider is configured
	// This should be added early in the chain to capture all requests
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(coord, hub, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
