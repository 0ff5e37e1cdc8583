package main

import (
	"fmt"
	"os"

	"github.com/coursehub-dev/coursehub/internal/config"
	"github.com/coursehub-dev/coursehub/internal/devgateway"
	"github.com/coursehub-dev/coursehub/internal/logger"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Create server
	srv, err := devgateway.New(cfg.DevGateway, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dev gateway")
	}

	log.Info().
		Str("version", version).
		Str("addr", cfg.DevGateway.Addr).
		Str("demo_user", devgateway.DemoEmail).
		Msg("Starting CourseHub dev gateway...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Dev gateway failed to start")
	}
}
