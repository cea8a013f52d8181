package storage

import (
	"context"

	"github.com/medtrack/backend/internal/application/inventory"
	infraconfig "github.com/medtrack/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Open returns S3 storage when object storage is enabled and in-memory storage
// otherwise. With CreateBucket set the bucket is created when missing.
func Open(ctx context.Context, cfg *infraconfig.ObjectStorageConfig, logger *zap.Logger) (inventory.ArchiveStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil || !cfg.Enabled {
		logger.Debug("Object storage disabled, keeping archives in memory")
		return NewMemoryObjectStorage(), nil
	}
	s3Storage, err := NewS3ObjectStorage(cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if cfg.CreateBucket {
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return s3Storage, nil
}
