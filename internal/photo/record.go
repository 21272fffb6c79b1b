package photo

import (
	"fmt"
	"time"
)

const (
	// GalleryLimit is the maximum number of Active records.
	GalleryLimit = 15
	// TrashLimit is the maximum number of Trashed records.
	TrashLimit = 10
	// TrashRetentionDays is how long a Trashed record survives before the sweep purges it.
	TrashRetentionDays = 7

	// TrashRetention is TrashRetentionDays expressed as a duration.
	TrashRetention = TrashRetentionDays * 24 * time.Hour
)

// State is the lifecycle stage of a stored photo. A destroyed photo has no
// record at all, so there is no Deleted state.
type State int

const (
	StateActive State = iota
	StateTrashed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTrashed:
		return "trashed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Lifecycle couples a record's state with its trash timestamp so that a
// Trashed record always carries trashedAt and an Active record never does.
// The zero value is Active.
type Lifecycle struct {
	state     State
	trashedAt time.Time
}

// Active returns the Active lifecycle.
func Active() Lifecycle {
	return Lifecycle{state: StateActive}
}

// TrashedAt returns a Trashed lifecycle that entered the trash at t.
func TrashedAt(t time.Time) Lifecycle {
	return Lifecycle{state: StateTrashed, trashedAt: t}
}

func (l Lifecycle) State() State { return l.state }

func (l Lifecycle) IsActive() bool { return l.state == StateActive }

func (l Lifecycle) IsTrashed() bool { return l.state == StateTrashed }

// TrashedAt returns when the record entered the trash. ok is false for
// Active records.
func (l Lifecycle) TrashedAt() (t time.Time, ok bool) {
	if l.state != StateTrashed {
		return time.Time{}, false
	}
	return l.trashedAt, true
}

// Record is a captured photograph in either the gallery or the trash.
// ID, BlobRef, CapturedAt, Width, Height and Size never change after creation.
type Record struct {
	ID         string
	BlobRef    string
	CapturedAt time.Time
	Width      int
	Height     int
	Size       int64
	GroupRef   string
	Lifecycle  Lifecycle
}

// Clone returns a copy of r that can be mutated independently.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// Expired reports whether a Trashed record is past the retention window at now.
// The comparison is a plain millisecond difference against now.
func (r *Record) Expired(now time.Time) bool {
	at, ok := r.Lifecycle.TrashedAt()
	if !ok {
		return false
	}
	return at.UnixMilli() < now.Add(-TrashRetention).UnixMilli()
}

// DaysLeft returns the whole days remaining before a Trashed record is
// purged, floored and clamped at zero. It is for display only; Expired is
// what the sweep uses. Active records return TrashRetentionDays.
func (r *Record) DaysLeft(now time.Time) int {
	at, ok := r.Lifecycle.TrashedAt()
	if !ok {
		return TrashRetentionDays
	}
	passed := int(now.Sub(at) / (24 * time.Hour))
	if left := TrashRetentionDays - passed; left > 0 {
		return left
	}
	return 0
}

// validate checks the per-record invariants.
func (r *Record) validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: record has empty id", ErrInvariant)
	}
	if r.BlobRef == "" {
		return fmt.Errorf("%w: record %s has empty blob ref", ErrInvariant, r.ID)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: record %s has dimensions %dx%d", ErrInvariant, r.ID, r.Width, r.Height)
	}
	if at, ok := r.Lifecycle.TrashedAt(); ok && at.IsZero() {
		return fmt.Errorf("%w: trashed record %s has no trash time", ErrInvariant, r.ID)
	}
	return nil
}
