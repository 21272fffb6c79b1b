package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for swipecam.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	BlobStore  BlobStoreConfig  `toml:"blob_store"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// BlobStoreConfig selects where image bytes live.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BlobStoreConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`          // for S3-compatible services
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`     // empty means the default AWS credential chain
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"` // required with s3_access_key_id
	S3PathStyle       bool   `toml:"s3_path_style,omitempty"`
}

// DatabaseConfig selects the metadata backend for the photo index and counters.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "badger", or "memory"
	DataDir string `toml:"data_dir,omitempty"` // used for sqlite and badger
}

// EncryptionConfig controls encryption of image bytes at rest.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age", or "test"
	PublicKeyPath  string `toml:"public_key_path,omitempty"`
	PrivateKeyPath string `toml:"private_key_path,omitempty"`
}

// Enabled reports whether blobs are encrypted.
func (e EncryptionConfig) Enabled() bool {
	return e.Type != "" && e.Type != "none"
}

// NewConfig creates a Config rooted at baseDir: photos on the local
// filesystem, metadata in SQLite, no encryption.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		BlobStore: BlobStoreConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "photos"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "swipecam.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "swipecam.key"),
		},
	}
}

// Validate checks that each tagged section has the fields its type needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.BlobStore.Type {
	case "memory":
	case "filesystem":
		if c.BlobStore.FSRoot == "" {
			errs = append(errs, fmt.Errorf("blob_store: filesystem requires fs_root"))
		}
	case "s3":
		if c.BlobStore.S3Bucket == "" {
			errs = append(errs, fmt.Errorf("blob_store: s3 requires s3_bucket"))
		}
		if (c.BlobStore.S3AccessKeyID == "") != (c.BlobStore.S3SecretAccessKey == "") {
			errs = append(errs, fmt.Errorf("blob_store: s3_access_key_id and s3_secret_access_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob_store: unknown type %q", c.BlobStore.Type))
	}

	switch c.Database.Type {
	case "memory":
	case "sqlite", "badger":
		if c.Database.DataDir == "" {
			errs = append(errs, fmt.Errorf("database: %s requires data_dir", c.Database.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("database: unknown type %q", c.Database.Type))
	}

	switch c.Encryption.Type {
	case "", "none", "test":
	case "age":
		if c.Encryption.PublicKeyPath == "" || c.Encryption.PrivateKeyPath == "" {
			errs = append(errs, fmt.Errorf("encryption: age requires public_key_path and private_key_path"))
		}
	default:
		errs = append(errs, fmt.Errorf("encryption: unknown type %q", c.Encryption.Type))
	}

	return errors.Join(errs...)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It refuses to overwrite.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
