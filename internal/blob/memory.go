package blob

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"swipecam/internal/photo"
)

// MemoryBlobStore keeps image bytes in a map. It is safe for concurrent use
// and backs tests and the "memory" blob store type.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte // ref -> bytes
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Put stores the bytes under the id itself.
func (m *MemoryBlobStore) Put(id string, r io.Reader, size int64) (string, error) {
	if id == "" {
		return "", fmt.Errorf("blob id is required")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read blob: %w", err)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = data
	return id, nil
}

func (m *MemoryBlobStore) Get(ref string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.blobs[ref]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("blob not found: %s", ref)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

func (m *MemoryBlobStore) Delete(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, ref)
	return nil
}

func (m *MemoryBlobStore) Exists(ref string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[ref]
	return ok, nil
}

func (m *MemoryBlobStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	refs := make([]string, 0, len(m.blobs))
	for ref := range m.blobs {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs, nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryBlobStore) ValidateSetup() error {
	return nil
}

var _ photo.BlobStore = (*MemoryBlobStore)(nil)
