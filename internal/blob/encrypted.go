package blob

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"swipecam/internal/photo"
)

// ErrLocked is returned by EncryptedBlobStore.Get before Unlock succeeds.
var ErrLocked = errors.New("blob store is locked: passphrase required")

// EncryptedBlobStore encrypts image bytes before handing them to another
// BlobStore. Writing needs only the public key, so capture never prompts;
// reading requires Unlock.
type EncryptedBlobStore struct {
	inner photo.BlobStore
	enc   photo.Encryptor

	mu  sync.Mutex
	dec photo.DecryptionContext
}

func NewEncryptedBlobStore(inner photo.BlobStore, enc photo.Encryptor) *EncryptedBlobStore {
	return &EncryptedBlobStore{inner: inner, enc: enc}
}

// Unlock decrypts the private key for the rest of the session.
func (s *EncryptedBlobStore) Unlock(passphrase string) error {
	dec, err := s.enc.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking blob store: %w", err)
	}
	s.mu.Lock()
	s.dec = dec
	s.mu.Unlock()
	return nil
}

func (s *EncryptedBlobStore) Put(id string, r io.Reader, size int64) (string, error) {
	cr := &countingReader{r: r}
	var ciphertext bytes.Buffer
	if err := s.enc.Encrypt(cr, &ciphertext); err != nil {
		return "", fmt.Errorf("encrypting blob: %w", err)
	}
	if cr.n != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, cr.n)
	}
	return s.inner.Put(id, &ciphertext, int64(ciphertext.Len()))
}

func (s *EncryptedBlobStore) Get(ref string, w io.Writer) error {
	s.mu.Lock()
	dec := s.dec
	s.mu.Unlock()
	if dec == nil {
		return ErrLocked
	}

	var ciphertext bytes.Buffer
	if err := s.inner.Get(ref, &ciphertext); err != nil {
		return err
	}
	if err := dec.Decrypt(&ciphertext, w); err != nil {
		return fmt.Errorf("decrypting blob %s: %w", ref, err)
	}
	return nil
}

func (s *EncryptedBlobStore) Delete(ref string) error { return s.inner.Delete(ref) }

func (s *EncryptedBlobStore) Exists(ref string) (bool, error) { return s.inner.Exists(ref) }

func (s *EncryptedBlobStore) List() ([]string, error) { return s.inner.List() }

// ValidateSetup checks the keys as well as the wrapped store.
func (s *EncryptedBlobStore) ValidateSetup() error {
	if !s.enc.IsConfigured() {
		return fmt.Errorf("encryption keys are not configured")
	}
	return s.inner.ValidateSetup()
}

var _ photo.BlobStore = (*EncryptedBlobStore)(nil)
