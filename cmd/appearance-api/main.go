// Package main is the entry point for the appearance API server.
package main

import (
	"log/slog"
	"os"

	"github.com/stacklok/appearance-server/cmd/appearance-api/app"
	"github.com/stacklok/appearance-server/internal/logging"
)

func main() {
	// Structured JSON logging on stderr keeps stdout clean for commands that output data
	// (e.g., version --format json).
	logging.Setup(logging.LevelFromEnv())

	slog.Info("Starting appearance API server")

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
