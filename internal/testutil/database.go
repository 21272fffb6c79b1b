package testutil

import (
	"errors"
	"sync"
	"testing"

	"swipecam/internal/database"
	"swipecam/internal/photo"
)

// NewTestDatabase creates an in-memory document database.
func NewTestDatabase() *database.MemoryDatabase {
	return database.NewMemoryDatabase()
}

// NewTestSQLiteDatabase creates a new in-memory SQLite database with schema applied.
// The database is automatically closed when the test completes.
func NewTestSQLiteDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// ErrInjected is returned by the failing test doubles.
var ErrInjected = errors.New("injected failure")

// FailingDatabase wraps a photo.Database and fails selected calls on demand.
type FailingDatabase struct {
	photo.Database

	mu               sync.Mutex
	failLoad         bool
	failSave         bool
	failSaveCounters bool
	saves            int
}

func NewFailingDatabase(inner photo.Database) *FailingDatabase {
	return &FailingDatabase{Database: inner}
}

func (d *FailingDatabase) FailLoad(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failLoad = fail
}

func (d *FailingDatabase) FailSave(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failSave = fail
}

func (d *FailingDatabase) FailSaveCounters(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failSaveCounters = fail
}

// Saves returns how many index saves went through to the inner database.
func (d *FailingDatabase) Saves() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saves
}

func (d *FailingDatabase) Load() ([]*photo.Record, error) {
	d.mu.Lock()
	fail := d.failLoad
	d.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return d.Database.Load()
}

func (d *FailingDatabase) Save(records []*photo.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failSave {
		return ErrInjected
	}
	d.saves++
	return d.Database.Save(records)
}

func (d *FailingDatabase) SaveCounters(c photo.Counters) error {
	d.mu.Lock()
	fail := d.failSaveCounters
	d.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return d.Database.SaveCounters(c)
}
