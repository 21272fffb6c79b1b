package database

import (
	"os"
	"path/filepath"
	"testing"

	"swipecam/internal/config"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      func(dir string) config.DatabaseConfig
		wantType string
		wantFile string
		wantErr  bool
	}{
		{
			name:     "sqlite",
			cfg:      func(dir string) config.DatabaseConfig { return config.DatabaseConfig{Type: "sqlite", DataDir: dir} },
			wantType: "*database.SQLiteDatabase",
			wantFile: "photos.db",
		},
		{
			name:     "badger",
			cfg:      func(dir string) config.DatabaseConfig { return config.DatabaseConfig{Type: "badger", DataDir: dir} },
			wantType: "*database.BadgerDatabase",
			wantFile: "photos.badger",
		},
		{
			name:     "memory",
			cfg:      func(string) config.DatabaseConfig { return config.DatabaseConfig{Type: "memory"} },
			wantType: "*database.MemoryDatabase",
		},
		{
			name:    "sqlite without data_dir",
			cfg:     func(string) config.DatabaseConfig { return config.DatabaseConfig{Type: "sqlite"} },
			wantErr: true,
		},
		{
			name:    "badger without data_dir",
			cfg:     func(string) config.DatabaseConfig { return config.DatabaseConfig{Type: "badger"} },
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     func(string) config.DatabaseConfig { return config.DatabaseConfig{Type: "postgres"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			db, err := NewDatabaseFromConfig(tt.cfg(dir))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewDatabaseFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer db.Close()

			if got := typeName(db); got != tt.wantType {
				t.Errorf("NewDatabaseFromConfig() type = %s, want %s", got, tt.wantType)
			}
			if tt.wantFile != "" {
				if _, err := os.Stat(filepath.Join(dir, tt.wantFile)); err != nil {
					t.Errorf("expected %s to exist: %v", tt.wantFile, err)
				}
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *SQLiteDatabase:
		return "*database.SQLiteDatabase"
	case *BadgerDatabase:
		return "*database.BadgerDatabase"
	case *MemoryDatabase:
		return "*database.MemoryDatabase"
	default:
		return "unknown"
	}
}
