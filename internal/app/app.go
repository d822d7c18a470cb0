// Package app provides application lifecycle management for the appearance server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/appearance-server/internal/config"
)

// AppearanceApp encapsulates all components needed to run the appearance API server
// It provides lifecycle management and graceful shutdown capabilities
type AppearanceApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the coordinator and then the HTTP server.
// This method blocks until the HTTP server stops or encounters an error
func (app *AppearanceApp) Start() error {
	if err := app.components.Coordinator.Start(app.ctx); err != nil {
		return fmt.Errorf("failed to start appearance coordinator: %w", err)
	}

	// Start HTTP server (blocks until stopped)
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application within timeout.
// The HTTP server goes first so no update arrives while the coordinator flushes pending
// saves; storage is released last.
func (app *AppearanceApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if err := app.components.Coordinator.Stop(shutdownCtx); err != nil {
		slog.Error("Failed to stop appearance coordinator", "error", err)
		errs = append(errs, err)
	}

	// Cancel the application context and release storage
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *AppearanceApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *AppearanceApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the wired application components
func (app *AppearanceApp) GetComponents() *AppComponents {
	return app.components
}
