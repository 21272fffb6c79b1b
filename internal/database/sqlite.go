package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"swipecam/internal/database/migrations"
	"swipecam/internal/photo"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements photo.Database using SQLite. Records keep their
// collection order through the position column.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path and brings its schema up to
// date. path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and the manager
	// is the only writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

const selectPhotos = `
SELECT id, blob_ref, captured_at, width, height, size_bytes, group_ref, state, trashed_at
FROM photos
ORDER BY position`

func (s *SQLiteDatabase) Load() ([]*photo.Record, error) {
	rows, err := s.db.QueryContext(context.Background(), selectPhotos)
	if err != nil {
		return nil, fmt.Errorf("loading photos: %w", err)
	}
	defer rows.Close()

	records := []*photo.Record{}
	for rows.Next() {
		var (
			d         recordDoc
			trashedAt sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.BlobRef, &d.CapturedAt, &d.Width, &d.Height, &d.Size, &d.GroupRef, &d.State, &trashedAt); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		if trashedAt.Valid {
			d.TrashedAt = &trashedAt.Int64
		}
		rec, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading photos: %w", err)
	}
	return records, nil
}

const insertPhoto = `
INSERT INTO photos (id, position, blob_ref, captured_at, width, height, size_bytes, group_ref, state, trashed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Save replaces every row in one transaction.
func (s *SQLiteDatabase) Save(records []*photo.Record) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM photos"); err != nil {
		return fmt.Errorf("clearing photos: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertPhoto)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		d := toDoc(r)
		var trashedAt sql.NullInt64
		if d.TrashedAt != nil {
			trashedAt = sql.NullInt64{Int64: *d.TrashedAt, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, d.ID, i, d.BlobRef, d.CapturedAt, d.Width, d.Height, d.Size, d.GroupRef, d.State, trashedAt); err != nil {
			return fmt.Errorf("inserting photo %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) LoadCounters() (photo.Counters, error) {
	var c photo.Counters
	err := s.db.QueryRowContext(context.Background(),
		"SELECT captured, saved, discarded, purged FROM counters WHERE id = 1",
	).Scan(&c.Captured, &c.Saved, &c.Discarded, &c.Purged)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return photo.Counters{}, nil
		}
		return photo.Counters{}, fmt.Errorf("loading counters: %w", err)
	}
	return c, nil
}

func (s *SQLiteDatabase) SaveCounters(c photo.Counters) error {
	_, err := s.db.ExecContext(context.Background(), `
INSERT INTO counters (id, captured, saved, discarded, purged) VALUES (1, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    captured = excluded.captured,
    saved = excluded.saved,
    discarded = excluded.discarded,
    purged = excluded.purged`,
		c.Captured, c.Saved, c.Discarded, c.Purged)
	if err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ photo.Database = (*SQLiteDatabase)(nil)
