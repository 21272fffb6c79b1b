package database

import (
	"fmt"
	"path/filepath"

	"swipecam/internal/config"
	"swipecam/internal/photo"
)

// NewDatabaseFromConfig opens the metadata backend named by cfg.Type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (photo.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, "photos.db"))
	case "badger":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for badger database")
		}
		return NewBadgerDatabase(filepath.Join(cfg.DataDir, "photos.badger"))
	case "memory":
		return NewMemoryDatabase(), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
