package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"swipecam/internal/photo"
)

const photoExt = ".jpg"

// FileSystemBlobStore keeps one file per photo:
//
//	<root>/
//	  <id>.jpg
//
// Writes go to a temp file in root and are renamed into place, so a blob
// either exists completely or not at all.
type FileSystemBlobStore struct {
	root string
}

// NewFileSystemBlobStore creates the store, creating root if needed.
func NewFileSystemBlobStore(root string) (*FileSystemBlobStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &FileSystemBlobStore{root: root}, nil
}

// Put writes the bytes to <id>.jpg and returns that file name as the ref.
func (s *FileSystemBlobStore) Put(id string, r io.Reader, size int64) (string, error) {
	ref := id + photoExt
	destPath, err := s.pathFor(ref)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(destPath, r, size); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *FileSystemBlobStore) Get(ref string, w io.Writer) error {
	srcPath, err := s.pathFor(ref)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("blob not found: %s", ref)
		}
		return fmt.Errorf("failed to open blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}
	return nil
}

// Delete removes the blob file. A missing file is not an error.
func (s *FileSystemBlobStore) Delete(ref string) error {
	path, err := s.pathFor(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *FileSystemBlobStore) Exists(ref string) (bool, error) {
	path, err := s.pathFor(ref)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// List returns the refs of all stored blobs, skipping in-flight temp files.
func (s *FileSystemBlobStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo directory: %w", err)
	}

	refs := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		refs = append(refs, e.Name())
	}
	sort.Strings(refs)
	return refs, nil
}

// ValidateSetup verifies that the photo directory exists.
func (s *FileSystemBlobStore) ValidateSetup() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("photo directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("photo directory is not a directory: %s", s.root)
	}
	return nil
}

// pathFor maps a ref to a file directly inside root, rejecting anything
// that would escape it.
func (s *FileSystemBlobStore) pathFor(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." {
		return "", fmt.Errorf("invalid blob ref: %q", ref)
	}
	return filepath.Join(s.root, ref), nil
}

// writeFileAtomic copies r into destPath via a temp file and rename.
func writeFileAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ photo.BlobStore = (*FileSystemBlobStore)(nil)
