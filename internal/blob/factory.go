package blob

import (
	"fmt"

	"swipecam/internal/config"
	"swipecam/internal/photo"
)

// NewBlobStoreFromConfig creates a BlobStore implementation based on the blob store config type.
func NewBlobStoreFromConfig(cfg config.BlobStoreConfig) (photo.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryBlobStore(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem blob store requires fs_root to be set")
		}
		return NewFileSystemBlobStore(cfg.FSRoot)
	case "s3":
		return NewS3BlobStore(cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
