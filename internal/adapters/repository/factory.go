package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/hudeditor/hudstore/internal/infrastructure/config"
	"github.com/hudeditor/hudstore/internal/infrastructure/database"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
	"github.com/hudeditor/hudstore/internal/ports"
)

// New opens the document repository selected by cfg.Storage.Backend
func New(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (ports.DocumentRepository, error) {
	storage := cfg.Storage

	switch storage.Backend {
	case "file":
		appLogger.Infow("Using file storage", "path", storage.File.Path)
		return NewFileRepository(storage.File.Path, os.FileMode(storage.File.Mode)), nil

	case "memory":
		appLogger.Warnw("Using in-memory storage; documents are lost on restart")
		return NewMemoryRepository(), nil

	case "bolt":
		appLogger.Infow("Using bolt storage", "path", storage.Bolt.Path)
		repo, err := NewBoltRepository(storage.Bolt.Path, storage.Bolt.OpenTimeout)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case "sql":
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrateUp(db, appLogger); err != nil {
				db.Close()
				return nil, err
			}
		}
		appLogger.Infow("Using sql storage", "driver", cfg.Database.Driver)
		return NewSQLRepository(db), nil

	case "s3":
		appLogger.Infow("Using s3 storage", "bucket", storage.S3.Bucket, "prefix", storage.S3.Prefix)
		repo, err := NewS3Repository(storage.S3)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case "redis":
		appLogger.Infow("Using redis storage", "addr", storage.Redis.GetAddr())
		repo, err := NewRedisRepository(ctx, storage.Redis)
		if err != nil {
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
}

func migrateUp(db *database.DB, appLogger *logger.Logger) error {
	mg, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	applied, err := mg.Up()
	if err != nil {
		return err
	}
	if applied {
		appLogger.Infow("Applied database migrations")
	}
	return nil
}
