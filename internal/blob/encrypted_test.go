package blob

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"swipecam/internal/config"
	"swipecam/internal/encryption"
)

func TestEncryptedBlobStore_StoresCiphertext(t *testing.T) {
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "swipecam.pub"),
		PrivateKeyPath: filepath.Join(dir, "swipecam.key"),
	})
	if err := enc.Setup("passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	inner := NewMemoryBlobStore()
	s := NewEncryptedBlobStore(inner, enc)
	plaintext := []byte("\xff\xd8\xff\xe0 a very private photo")

	ref, err := s.Put("a", bytes.NewReader(plaintext), int64(len(plaintext)))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var stored bytes.Buffer
	if err := inner.Get(ref, &stored); err != nil {
		t.Fatalf("inner Get() error = %v", err)
	}
	if bytes.Contains(stored.Bytes(), []byte("private photo")) {
		t.Error("inner store holds plaintext")
	}

	var buf bytes.Buffer
	if err := s.Get(ref, &buf); !errors.Is(err, ErrLocked) {
		t.Fatalf("Get() before Unlock error = %v, want ErrLocked", err)
	}

	if err := s.Unlock("wrong"); err == nil {
		t.Fatal("Unlock() with wrong passphrase expected error, got nil")
	}
	if err := s.Unlock("passphrase"); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if err := s.Get(ref, &buf); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), plaintext) {
		t.Errorf("Get() = %q, want %q", buf.Bytes(), plaintext)
	}
}

func TestEncryptedBlobStore_ValidateSetupNeedsKeys(t *testing.T) {
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "swipecam.pub"),
		PrivateKeyPath: filepath.Join(dir, "swipecam.key"),
	})
	s := NewEncryptedBlobStore(NewMemoryBlobStore(), enc)

	err := s.ValidateSetup()
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("ValidateSetup() error = %v, want keys not configured", err)
	}
}

func TestEncryptedBlobStore_PassesThroughDelete(t *testing.T) {
	inner := NewMemoryBlobStore()
	s := NewEncryptedBlobStore(inner, encryption.NewFakeEncryptor())

	ref, err := s.Put("a", strings.NewReader("data"), 4)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ref); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := inner.Exists(ref); ok {
		t.Error("inner blob still exists after Delete()")
	}
}
