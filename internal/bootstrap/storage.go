package bootstrap

import (
	"context"

	"github.com/annolab/corpus-manager/internal/config"
	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/storage"
)

// SetupObjectStore creates the export object store. Without a configured
// bucket exports land in an in-process store, which only makes sense for
// local development.
func SetupObjectStore(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.ObjectStore, error) {
	if cfg.Storage.Bucket == "" {
		log.Warn("No storage bucket configured, exports held in memory")
		return storage.NewMemory(), nil
	}
	return storage.NewGCS(ctx, cfg.Storage, log)
}
