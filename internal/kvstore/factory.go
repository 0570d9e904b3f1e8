package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"flexipdf/internal/config"
	"flexipdf/internal/flexi"
)

// SQLiteFileName is the database file created inside data_dir.
const SQLiteFileName = "library.db"

// Migrator is implemented by stores with a versioned schema of their own.
type Migrator interface {
	CheckMigrations() error
	MigrateUp() error
}

// NewStoreFromConfig creates a KVStore implementation based on the store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig) (flexi.KVStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, SQLiteFileName))
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem store requires fs_root to be set")
		}
		return NewFileSystemStore(cfg.FSRoot)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

// Compile-time check that SQLiteStore carries its own migrations
var _ Migrator = (*SQLiteStore)(nil)
