package photo

import "io"

// BlobStore persists raw image bytes. It knows nothing about lifecycle state.
type BlobStore interface {
	// Put stores size bytes read from r under a reference derived from id
	// and returns that reference.
	Put(id string, r io.Reader, size int64) (string, error)

	// Get writes the bytes stored under ref to w.
	Get(ref string, w io.Writer) error

	// Delete removes the bytes stored under ref. Deleting a missing blob is
	// not an error.
	Delete(ref string) error

	// Exists reports whether bytes are stored under ref.
	Exists(ref string) (bool, error)

	// List returns every stored reference. Used by Reconcile to find orphans.
	List() ([]string, error)

	// ValidateSetup verifies that the store is accessible and properly configured.
	ValidateSetup() error
}
