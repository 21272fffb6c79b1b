package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"swipecam/internal/photo"
)

var (
	indexKey    = []byte("photos/index")
	countersKey = []byte("photos/counters")
)

// BadgerDatabase stores the index and the counters as two JSON documents in
// a Badger key-value store. Each Save is a single transaction, so a
// document is either fully replaced or left as it was.
type BadgerDatabase struct {
	db *badger.DB
}

// NewBadgerDatabase opens (or creates) a Badger store in dir.
// An empty dir opens an in-memory store.
func NewBadgerDatabase(dir string) (*BadgerDatabase, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerDatabase{db: db}, nil
}

func (b *BadgerDatabase) Load() ([]*photo.Record, error) {
	data, err := b.get(indexKey)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	return decodeIndex(data)
}

func (b *BadgerDatabase) Save(records []*photo.Record) error {
	data, err := encodeIndex(records)
	if err != nil {
		return err
	}
	if err := b.set(indexKey, data); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

func (b *BadgerDatabase) LoadCounters() (photo.Counters, error) {
	data, err := b.get(countersKey)
	if err != nil {
		return photo.Counters{}, fmt.Errorf("loading counters: %w", err)
	}
	return decodeCounters(data)
}

func (b *BadgerDatabase) SaveCounters(c photo.Counters) error {
	data, err := encodeCounters(c)
	if err != nil {
		return err
	}
	if err := b.set(countersKey, data); err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}
	return nil
}

// get returns nil when key is absent.
func (b *BadgerDatabase) get(key []byte) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

func (b *BadgerDatabase) set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *BadgerDatabase) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

var _ photo.Database = (*BadgerDatabase)(nil)
