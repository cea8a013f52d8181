// Package kvstore provides the durable key-value drivers behind the asset
// repository snapshot.
package kvstore

import (
	"context"
	"fmt"

	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/medtrack/backend/internal/infrastructure/config"
	"github.com/medtrack/backend/internal/infrastructure/logger"
	"github.com/medtrack/backend/internal/infrastructure/persistence"
	"github.com/medtrack/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Store is a KeyValueStore that owns a connection
type Store interface {
	shared.KeyValueStore
	Close() error
}

// Open builds the store selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver := cfg.Storage.Driver

	switch driver {
	case config.DriverMemory:
		log.Info("Using in-memory key-value store")
		return NewMemoryStore(), nil

	case config.DriverSQLite:
		db, err := persistence.NewSQLiteDatabase(cfg.Storage.SQLitePath, logger.NewGormLogger(log, cfg.Log.Level))
		if err != nil {
			return nil, err
		}
		return migrated(ctx, db, "sqlite", cfg.Telemetry.DBTraceEnabled, log, zap.String("path", cfg.Storage.SQLitePath))

	case config.DriverPostgres:
		db, err := persistence.NewPostgresDatabase(&cfg.Database, logger.NewGormLogger(log, cfg.Log.Level))
		if err != nil {
			return nil, err
		}
		return migrated(ctx, db, "postgresql", cfg.Telemetry.DBTraceEnabled, log,
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.DBName))

	case config.DriverRedis:
		store, err := NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis key-value store", zap.String("addr", cfg.Redis.Addr()))
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

func migrated(ctx context.Context, db *persistence.Database, dbSystem string, traced bool, log *zap.Logger, fields ...zap.Field) (Store, error) {
	if traced {
		if err := telemetry.RegisterDBTracing(db.DB, dbSystem); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	store := NewGormStore(db.DB)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Using SQL key-value store", fields...)
	return store, nil
}
