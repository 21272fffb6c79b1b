package testutil

import (
	"io"
	"sync"

	"swipecam/internal/blob"
	"swipecam/internal/photo"
)

// NewTestBlobStore creates a new in-memory blob store for testing.
func NewTestBlobStore() *blob.MemoryBlobStore {
	return blob.NewMemoryBlobStore()
}

// FailingBlobStore wraps a photo.BlobStore and fails selected calls on
// demand. Delete failures can be limited to specific refs. Safe for
// concurrent use.
type FailingBlobStore struct {
	photo.BlobStore

	mu          sync.Mutex
	failPut     bool
	failGet     bool
	failDelete  bool
	failExists  bool
	failDeletes map[string]bool
	deletes     []string
}

func NewFailingBlobStore(inner photo.BlobStore) *FailingBlobStore {
	return &FailingBlobStore{BlobStore: inner, failDeletes: make(map[string]bool)}
}

func (s *FailingBlobStore) FailPut(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPut = fail
}

func (s *FailingBlobStore) FailGet(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = fail
}

// FailDelete makes every Delete fail.
func (s *FailingBlobStore) FailDelete(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete = fail
}

// FailDeleteOf makes Delete fail only for ref.
func (s *FailingBlobStore) FailDeleteOf(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDeletes[ref] = true
}

func (s *FailingBlobStore) FailExists(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failExists = fail
}

// Deletes returns the refs of successful Delete calls, in order.
func (s *FailingBlobStore) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

func (s *FailingBlobStore) Put(id string, r io.Reader, size int64) (string, error) {
	s.mu.Lock()
	fail := s.failPut
	s.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return s.BlobStore.Put(id, r, size)
}

func (s *FailingBlobStore) Get(ref string, w io.Writer) error {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.BlobStore.Get(ref, w)
}

func (s *FailingBlobStore) Delete(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete || s.failDeletes[ref] {
		return ErrInjected
	}
	if err := s.BlobStore.Delete(ref); err != nil {
		return err
	}
	s.deletes = append(s.deletes, ref)
	return nil
}

func (s *FailingBlobStore) Exists(ref string) (bool, error) {
	s.mu.Lock()
	fail := s.failExists
	s.mu.Unlock()
	if fail {
		return false, ErrInjected
	}
	return s.BlobStore.Exists(ref)
}
