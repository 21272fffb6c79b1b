package photo

// Index is the durable mapping from photo id to record.
// The whole collection is read and written at once; implementations are
// free to store it incrementally as long as Load returns what Save was given.
type Index interface {
	// Load returns every record in the order it was saved.
	Load() ([]*Record, error)

	// Save replaces the whole collection.
	Save(records []*Record) error
}

// CounterStore persists the cumulative counters behind Stats.
type CounterStore interface {
	// LoadCounters returns the stored counters, or zero counters if none were saved.
	LoadCounters() (Counters, error)

	// SaveCounters overwrites the stored counters.
	SaveCounters(c Counters) error
}

// Database is a metadata backend that holds both the index and the counters.
type Database interface {
	Index
	CounterStore

	// Close releases the backend.
	Close() error
}
