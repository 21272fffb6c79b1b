package photo

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator mints record identifiers. Identifiers must sort in creation
// order, because eviction breaks timestamp ties by ascending id.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces version 7 UUIDs, which embed a millisecond
// timestamp and a monotonic counter, so their string form sorts by creation.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.Must(uuid.NewV7()).String() }
