package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/swipecam",
		LogDir:  "/home/user/.local/share/swipecam/log",
		BlobStore: BlobStoreConfig{
			Type:        "s3",
			S3Bucket:    "phone-photos",
			S3Prefix:    "swipecam",
			S3Region:    "eu-west-1",
			S3Endpoint:  "http://localhost:9000",
			S3PathStyle: true,
		},
		Database: DatabaseConfig{Type: "badger", DataDir: "/home/user/.local/share/swipecam/db"},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/swipecam/keys/swipecam.pub",
			PrivateKeyPath: "/home/user/.local/share/swipecam/keys/swipecam.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[blob_store]") {
		t.Errorf("encoded config has no [blob_store] table:\n%s", buf.String())
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if *got != *original {
		t.Errorf("round trip = %+v, want %+v", got, original)
	}
}

func TestManager_ReadOmitsUnsetFields(t *testing.T) {
	in := `
base_dir = "/data"
log_dir = "/data/log"

[blob_store]
type = "memory"

[database]
type = "memory"
`
	cfg, err := (&Manager{}).Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Encryption.Enabled() {
		t.Error("Encryption.Enabled() = true for a config without [encryption]")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/base")

	if cfg.BaseDir != "/base" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/base")
	}
	if cfg.LogDir != filepath.Join("/base", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.BlobStore.Type != "filesystem" || cfg.BlobStore.FSRoot != filepath.Join("/base", "photos") {
		t.Errorf("BlobStore = %+v", cfg.BlobStore)
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != filepath.Join("/base", "db") {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Encryption.Enabled() {
		t.Error("encryption enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "memory everything", modify: func(c *Config) {
			c.BlobStore = BlobStoreConfig{Type: "memory"}
			c.Database = DatabaseConfig{Type: "memory"}
		}},
		{name: "test encryption", modify: func(c *Config) { c.Encryption.Type = "test" }},
		{name: "age encryption", modify: func(c *Config) { c.Encryption.Type = "age" }},
		{
			name:    "filesystem without root",
			modify:  func(c *Config) { c.BlobStore.FSRoot = "" },
			wantErr: "requires fs_root",
		},
		{
			name:    "s3 without bucket",
			modify:  func(c *Config) { c.BlobStore = BlobStoreConfig{Type: "s3"} },
			wantErr: "requires s3_bucket",
		},
		{
			name: "s3 with half credentials",
			modify: func(c *Config) {
				c.BlobStore = BlobStoreConfig{Type: "s3", S3Bucket: "b", S3AccessKeyID: "id"}
			},
			wantErr: "must be set together",
		},
		{
			name:    "unknown blob store",
			modify:  func(c *Config) { c.BlobStore.Type = "ftp" },
			wantErr: `unknown type "ftp"`,
		},
		{
			name:    "badger without data dir",
			modify:  func(c *Config) { c.Database = DatabaseConfig{Type: "badger"} },
			wantErr: "badger requires data_dir",
		},
		{
			name:    "unknown database",
			modify:  func(c *Config) { c.Database.Type = "postgres" },
			wantErr: `unknown type "postgres"`,
		},
		{
			name: "age without keys",
			modify: func(c *Config) {
				c.Encryption = EncryptionConfig{Type: "age"}
			},
			wantErr: "requires public_key_path",
		},
		{
			name:    "unknown encryption",
			modify:  func(c *Config) { c.Encryption.Type = "rot13" },
			wantErr: `unknown type "rot13"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/base")
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsEverySection(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() on empty config expected error, got nil")
	}
	for _, section := range []string{"blob_store", "database"} {
		if !strings.Contains(err.Error(), section) {
			t.Errorf("Validate() error %q does not mention %s", err, section)
		}
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")

		if err := Init(path, NewConfig("/base")); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("existing"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := Init(path, NewConfig("/base")); err == nil {
			t.Error("Init() expected error for existing file, got nil")
		}
		data, _ := os.ReadFile(path)
		if string(data) != "existing" {
			t.Errorf("existing file overwritten: %q", data)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		cfg := NewConfig("/base")
		cfg.Database.Type = "postgres"

		if err := Init(path, cfg); err == nil {
			t.Error("Init() expected error for invalid config, got nil")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("config file written for invalid config: %v", err)
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		want := NewConfig("/base")
		if err := Init(path, want); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if *got != *want {
			t.Errorf("ReadFromFile() = %+v, want %+v", got, want)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("ReadFromFile() expected error for missing file, got nil")
		}
	})

	t.Run("returns error for invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[blob_store]\ntype = \"ftp\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := ReadFromFile(path)
		if err == nil || !strings.Contains(err.Error(), "invalid config") {
			t.Errorf("ReadFromFile() error = %v, want invalid config", err)
		}
	})
}
