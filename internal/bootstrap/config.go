package bootstrap

import (
	"flag"
	"fmt"
	"os"

	"github.com/annolab/corpus-manager/internal/config"
	"github.com/annolab/corpus-manager/internal/logger"
)

// LoadConfig loads configuration. The -config flag overrides the CONFIG_PATH
// environment variable, which defaults to config.yml.
func LoadConfig() (*config.Config, error) {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yml"
	}
	configPath := flag.String("config", defaultPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", "corpus-manager"),
		logger.String("version", version),
	), nil
}
