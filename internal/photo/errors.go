package photo

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is matched by every *CapacityError.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrNotFound         = errors.New("photo not found")
	ErrNotTrashed       = errors.New("photo is not in the trash")
	ErrNotActive        = errors.New("photo is not in the gallery")
	ErrInvalidCapture   = errors.New("invalid capture")
	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("storage failure")
	// ErrInvariant means the collection is corrupt or a bug let an invariant slip.
	ErrInvariant = errors.New("invariant violation")
)

// CapacityError reports that a stage is at its limit.
type CapacityError struct {
	Stage State
	Limit int
}

func (e *CapacityError) Error() string {
	if e.Stage == StateActive {
		return fmt.Sprintf("gallery is full (%d photos)", e.Limit)
	}
	return fmt.Sprintf("trash is full (%d photos)", e.Limit)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }

// StorageError wraps an I/O failure from the blob store or the metadata index.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsDeclined reports whether err is an expected refusal (full stage, unknown
// id, wrong state, bad input) rather than a fault. Declined operations never
// change any state.
func IsDeclined(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotTrashed) ||
		errors.Is(err, ErrNotActive) ||
		errors.Is(err, ErrInvalidCapture)
}
