package photo

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// collection is one loaded copy of the whole index. Manager operations
// mutate it in memory and save it back in full.
type collection []*Record

func (c collection) find(id string) *Record {
	for _, r := range c {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (c collection) count(s State) int {
	n := 0
	for _, r := range c {
		if r.Lifecycle.State() == s {
			n++
		}
	}
	return n
}

func (c collection) with(r *Record) collection {
	next := make(collection, 0, len(c)+1)
	next = append(next, c...)
	return append(next, r)
}

func (c collection) without(id string) collection {
	next := make(collection, 0, len(c))
	for _, r := range c {
		if r.ID != id {
			next = append(next, r)
		}
	}
	return next
}

// replace swaps in r for the record with the same id, keeping position.
func (c collection) replace(r *Record) collection {
	next := make(collection, len(c))
	for i, old := range c {
		if old.ID == r.ID {
			next[i] = r
		} else {
			next[i] = old
		}
	}
	return next
}

func (c collection) filter(s State) []*Record {
	out := []*Record{}
	for _, r := range c {
		if r.Lifecycle.State() == s {
			out = append(out, r)
		}
	}
	return out
}

// trashedOldestFirst orders Trashed records for eviction: ascending trashedAt,
// ties broken by ascending id.
func (c collection) trashedOldestFirst() []*Record {
	out := c.filter(StateTrashed)
	slices.SortStableFunc(out, compareEviction)
	return out
}

func (c collection) oldestTrashed() *Record {
	trashed := c.trashedOldestFirst()
	if len(trashed) == 0 {
		return nil
	}
	return trashed[0]
}

func (c collection) expired(now time.Time) []*Record {
	out := []*Record{}
	for _, r := range c.trashedOldestFirst() {
		if r.Expired(now) {
			out = append(out, r)
		}
	}
	return out
}

func compareEviction(a, b *Record) int {
	at, _ := a.Lifecycle.TrashedAt()
	bt, _ := b.Lifecycle.TrashedAt()
	if n := at.Compare(bt); n != 0 {
		return n
	}
	return cmp.Compare(a.ID, b.ID)
}

// check verifies the collection-wide invariants: unique ids, per-record
// validity, and both capacity limits.
func (c collection) check() error {
	seen := make(map[string]struct{}, len(c))
	for _, r := range c {
		if err := r.validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvariant, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	if n := c.count(StateActive); n > GalleryLimit {
		return fmt.Errorf("%w: %d active photos exceeds limit %d", ErrInvariant, n, GalleryLimit)
	}
	if n := c.count(StateTrashed); n > TrashLimit {
		return fmt.Errorf("%w: %d trashed photos exceeds limit %d", ErrInvariant, n, TrashLimit)
	}
	return nil
}
