package database

import (
	"bytes"
	"sync"

	"swipecam/internal/photo"
)

// MemoryDatabase keeps the index and counters as serialized documents in
// memory. Storing bytes rather than pointers means callers never share
// records with the store, and tests can compare whole documents.
type MemoryDatabase struct {
	mu       sync.RWMutex
	index    []byte
	counters []byte
}

// NewMemoryDatabase returns an empty MemoryDatabase.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{}
}

func (m *MemoryDatabase) Load() ([]*photo.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decodeIndex(m.index)
}

func (m *MemoryDatabase) Save(records []*photo.Record) error {
	data, err := encodeIndex(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = data
	return nil
}

func (m *MemoryDatabase) LoadCounters() (photo.Counters, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decodeCounters(m.counters)
}

func (m *MemoryDatabase) SaveCounters(c photo.Counters) error {
	data, err := encodeCounters(c)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = data
	return nil
}

// Document returns a copy of the serialized index as last saved.
func (m *MemoryDatabase) Document() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return bytes.Clone(m.index)
}

func (m *MemoryDatabase) Close() error {
	return nil
}

var _ photo.Database = (*MemoryDatabase)(nil)
