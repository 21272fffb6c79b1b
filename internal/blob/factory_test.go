package blob

import (
	"path/filepath"
	"testing"

	"swipecam/internal/config"
)

func s3Config(bucket string) config.BlobStoreConfig {
	return config.BlobStoreConfig{
		Type:              "s3",
		S3Bucket:          bucket,
		S3Region:          "us-east-1",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "minio",
		S3SecretAccessKey: "minio123",
		S3PathStyle:       true,
	}
}

func TestNewBlobStoreFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.BlobStoreConfig
		wantType string
		wantErr  bool
	}{
		{
			name:     "memory",
			cfg:      config.BlobStoreConfig{Type: "memory"},
			wantType: "*blob.MemoryBlobStore",
		},
		{
			name:     "filesystem",
			cfg:      config.BlobStoreConfig{Type: "filesystem", FSRoot: filepath.Join(t.TempDir(), "photos")},
			wantType: "*blob.FileSystemBlobStore",
		},
		{
			name:    "filesystem without root",
			cfg:     config.BlobStoreConfig{Type: "filesystem"},
			wantErr: true,
		},
		{
			name:     "s3 with static credentials",
			cfg:      s3Config("photos"),
			wantType: "*blob.S3BlobStore",
		},
		{
			name:    "s3 without bucket",
			cfg:     s3Config(""),
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     config.BlobStoreConfig{Type: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewBlobStoreFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBlobStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			var got string
			switch s.(type) {
			case *MemoryBlobStore:
				got = "*blob.MemoryBlobStore"
			case *FileSystemBlobStore:
				got = "*blob.FileSystemBlobStore"
			case *S3BlobStore:
				got = "*blob.S3BlobStore"
			}
			if got != tt.wantType {
				t.Errorf("NewBlobStoreFromConfig() type = %s, want %s", got, tt.wantType)
			}
		})
	}
}
