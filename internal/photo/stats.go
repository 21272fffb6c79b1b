package photo

import (
	"fmt"
	"sync"
)

// Event is a lifecycle occurrence that moves a cumulative counter.
type Event int

const (
	EventCaptured Event = iota
	EventSaved
	EventDiscarded
	EventPurged
)

func (e Event) String() string {
	switch e {
	case EventCaptured:
		return "captured"
	case EventSaved:
		return "saved"
	case EventDiscarded:
		return "discarded"
	case EventPurged:
		return "purged"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Counters are the cumulative, persisted totals. They only ever grow and are
// independent of what the collection currently holds.
type Counters struct {
	Captured  int64
	Saved     int64
	Discarded int64
	Purged    int64
}

// Stats merges Counters with figures derived from the current collection.
type Stats struct {
	TotalCaptured  int64
	TotalSaved     int64
	TotalDiscarded int64
	TotalPurged    int64
	GalleryCount   int
	TrashCount     int
	StorageBytes   int64
}

func (s Stats) GalleryFull() bool { return s.GalleryCount >= GalleryLimit }

func (s Stats) TrashFull() bool { return s.TrashCount >= TrashLimit }

// StatsAggregator owns the cumulative counters. Init must be called once at
// startup to load them from the store; Record persists on every event.
type StatsAggregator struct {
	store    CounterStore
	mu       sync.Mutex
	counters Counters
	loaded   bool
}

func NewStatsAggregator(store CounterStore) *StatsAggregator {
	return &StatsAggregator{store: store}
}

// Init (re)loads the counters from the store.
func (a *StatsAggregator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, err := a.store.LoadCounters()
	if err != nil {
		return fmt.Errorf("loading counters: %w", err)
	}
	a.counters = c
	a.loaded = true
	return nil
}

// Record applies events and writes the new totals back. On a failed write
// the in-memory totals are left unchanged.
func (a *StatsAggregator) Record(events ...Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return fmt.Errorf("stats aggregator used before Init")
	}

	next := a.counters
	for _, e := range events {
		switch e {
		case EventCaptured:
			next.Captured++
		case EventSaved:
			next.Saved++
		case EventDiscarded:
			next.Discarded++
		case EventPurged:
			next.Purged++
		default:
			return fmt.Errorf("unknown stats event: %v", e)
		}
	}

	if err := a.store.SaveCounters(next); err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}
	a.counters = next
	return nil
}

// Counters returns the current cumulative totals.
func (a *StatsAggregator) Counters() Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}

// Snapshot combines the cumulative totals with live counts over records.
func (a *StatsAggregator) Snapshot(records []*Record) Stats {
	c := a.Counters()
	s := Stats{
		TotalCaptured:  c.Captured,
		TotalSaved:     c.Saved,
		TotalDiscarded: c.Discarded,
		TotalPurged:    c.Purged,
	}
	for _, r := range records {
		if r.Lifecycle.IsTrashed() {
			s.TrashCount++
		} else {
			s.GalleryCount++
		}
		s.StorageBytes += r.Size
	}
	return s
}
