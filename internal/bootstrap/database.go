package bootstrap

import (
	"fmt"

	"github.com/annolab/corpus-manager/internal/config"
	"github.com/annolab/corpus-manager/internal/database"
	"github.com/annolab/corpus-manager/internal/logger"
)

// SetupDatabase creates a database connection.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*database.DB, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	return db, nil
}
