// Package bootstrap handles application initialization and lifecycle
// management for the corpus-manager service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/metrics"
)

const version = "dev"

// Start initializes and starts the corpus-manager application.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Setup database
	db, err := SetupDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", logger.Error(closeErr))
		}
	}()

	// Phase 3: Setup event publisher (optional) and object storage
	publisher := SetupEventPublisher(cfg, log)

	store, err := SetupObjectStore(context.Background(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to set up object storage: %w", err)
	}

	// Phase 4: Setup and run HTTP server
	m := metrics.New()
	server := SetupHTTPServer(cfg, db, publisher, store, m, log)

	log.Info("Starting HTTP server",
		logger.String("host", cfg.Server.Host),
		logger.Int("port", cfg.Server.Port),
	)

	if runErr := server.Run(context.Background()); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
