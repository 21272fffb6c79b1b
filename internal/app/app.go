package app

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"swipecam/internal/blob"
	"swipecam/internal/config"
	"swipecam/internal/database"
	"swipecam/internal/encryption"
	"swipecam/internal/photo"
)

// ErrAmbiguousID is returned when an id prefix matches more than one photo.
var ErrAmbiguousID = errors.New("id prefix matches more than one photo")

// ErrBackupUnsupported is returned by BackupDatabase for non-SQLite backends.
var ErrBackupUnsupported = errors.New("database backend does not support backups")

// PhotoApp is the application layer between the CLI and photo.Manager.
// It constructs all dependencies from config, accepts raw paths and id
// prefixes, and owns the lifetime of the database and log file.
type PhotoApp struct {
	cfg     *config.Config
	db      photo.Database
	locked  *blob.EncryptedBlobStore // nil when encryption is off
	manager *photo.Manager
	clock   photo.Clock
	logger  *slog.Logger
	op      *Operation
	logFile *os.File
}

// CaptureOptions describes an image file handed to Commit or Discard.
// Zero dimensions are read from the image header.
type CaptureOptions struct {
	Width    int
	Height   int
	GroupRef string
}

// NewPhotoApp creates a fully wired PhotoApp from the given config.
// operation names the CLI command being run (e.g. "Capture", "EmptyTrash").
// The caller must call Close when done.
func NewPhotoApp(cfg *config.Config, operation string) (*PhotoApp, error) {
	return newPhotoApp(cfg, operation, os.Stderr, photo.RealClock{}, photo.UUIDGenerator{})
}

func newPhotoApp(cfg *config.Config, operation string, console io.Writer, clock photo.Clock, idgen photo.IDGenerator) (*PhotoApp, error) {
	blobs, err := blob.NewBlobStoreFromConfig(cfg.BlobStore)
	if err != nil {
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	var locked *blob.EncryptedBlobStore
	if enc != nil {
		if !enc.IsConfigured() {
			return nil, fmt.Errorf("encryption is enabled but keys are missing: run 'swipecam config init' first")
		}
		locked = blob.NewEncryptedBlobStore(blobs, enc)
		blobs = locked
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if sq, ok := db.(*database.SQLiteDatabase); ok {
		if err := sq.CheckMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("database schema out of date: %w", err)
		}
	}

	op := NewOperation(operation, clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, console, slog.LevelWarn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	stats := photo.NewStatsAggregator(db)
	if err := stats.Init(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("loading counters: %w", err)
	}

	mgr := photo.NewManager(db, blobs, stats, &slogAdapter{l: logger}, clock, idgen)
	logger.Debug("operation started", "operation", op.Name)

	return &PhotoApp{
		cfg:     cfg,
		db:      db,
		locked:  locked,
		manager: mgr,
		clock:   clock,
		logger:  logger,
		op:      op,
		logFile: logFile,
	}, nil
}

// Commit reads the image at path and saves it straight into the gallery.
func (a *PhotoApp) Commit(path string, opts CaptureOptions) (*photo.Record, error) {
	c, err := readCapture(path, opts)
	if err != nil {
		return nil, a.op.Record(err)
	}
	rec, err := a.manager.Commit(c)
	return rec, a.op.Record(err)
}

// Discard reads the image at path and files it directly into the trash.
func (a *PhotoApp) Discard(path string, opts CaptureOptions) (*photo.Record, error) {
	c, err := readCapture(path, opts)
	if err != nil {
		return nil, a.op.Record(err)
	}
	rec, err := a.manager.Discard(c)
	return rec, a.op.Record(err)
}

// Trash moves the gallery photo matching idPrefix into the trash.
func (a *PhotoApp) Trash(idPrefix string) (string, error) {
	return a.withID(idPrefix, a.manager.Trash)
}

// Recover moves the trashed photo matching idPrefix back into the gallery.
func (a *PhotoApp) Recover(idPrefix string) (string, error) {
	return a.withID(idPrefix, a.manager.Recover)
}

// Purge permanently deletes the trashed photo matching idPrefix.
func (a *PhotoApp) Purge(idPrefix string) (string, error) {
	return a.withID(idPrefix, a.manager.PurgeOne)
}

// EmptyTrash purges every trashed photo and returns how many were removed.
func (a *PhotoApp) EmptyTrash() (int, error) {
	n, err := a.manager.PurgeAllTrash()
	return n, a.op.Record(err)
}

// Sweep purges trashed photos past the retention window.
func (a *PhotoApp) Sweep() (int, error) {
	n, err := a.manager.SweepExpiredTrash()
	return n, a.op.Record(err)
}

// Gallery returns active photos, newest capture first.
func (a *PhotoApp) Gallery() ([]*photo.Record, error) {
	recs, err := a.manager.Gallery()
	return recs, a.op.Record(err)
}

// TrashList returns trashed photos, most recently trashed first.
func (a *PhotoApp) TrashList() ([]*photo.Record, error) {
	recs, err := a.manager.TrashList()
	return recs, a.op.Record(err)
}

// Get returns the photo matching idPrefix.
func (a *PhotoApp) Get(idPrefix string) (*photo.Record, error) {
	id, err := a.resolveID(idPrefix)
	if err != nil {
		return nil, a.op.Record(err)
	}
	rec, err := a.manager.Get(id)
	return rec, a.op.Record(err)
}

// Export writes the image bytes of the photo matching idPrefix to dest.
// passphrase unlocks the private key when blobs are encrypted and is
// ignored otherwise. A partially written dest is removed on failure.
func (a *PhotoApp) Export(idPrefix, dest, passphrase string) (*photo.Record, error) {
	rec, err := a.Get(idPrefix)
	if err != nil {
		return nil, err
	}

	if a.locked != nil {
		if err := a.locked.Unlock(passphrase); err != nil {
			return nil, a.op.Record(err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, a.op.Record(fmt.Errorf("creating export directory: %w", err))
	}
	f, err := os.Create(dest)
	if err != nil {
		return nil, a.op.Record(fmt.Errorf("creating export file: %w", err))
	}
	if err := a.manager.Open(rec.ID, f); err != nil {
		f.Close()
		os.Remove(dest)
		return nil, a.op.Record(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return nil, a.op.Record(fmt.Errorf("closing export file: %w", err))
	}

	a.logger.Info("photo exported", "id", rec.ID, "dest", dest)
	return rec, nil
}

// Stats returns the cumulative counters merged with current occupancy.
func (a *PhotoApp) Stats() (photo.Stats, error) {
	s, err := a.manager.Stats()
	return s, a.op.Record(err)
}

// Reconcile repairs orphan blobs and dangling records.
func (a *PhotoApp) Reconcile() (*photo.ReconcileReport, error) {
	r, err := a.manager.Reconcile()
	return r, a.op.Record(err)
}

// BackupDatabase snapshots the metadata database to dest.
func (a *PhotoApp) BackupDatabase(dest string) error {
	sq, ok := a.db.(*database.SQLiteDatabase)
	if !ok {
		return a.op.Record(fmt.Errorf("%w: %s", ErrBackupUnsupported, a.cfg.Database.Type))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return a.op.Record(fmt.Errorf("creating backup directory: %w", err))
	}
	if err := sq.BackupTo(dest); err != nil {
		return a.op.Record(err)
	}
	a.logger.Info("database backed up", "dest", dest)
	return nil
}

// NeedsPassphrase reports whether reading image bytes requires a passphrase.
func (a *PhotoApp) NeedsPassphrase() bool {
	return a.locked != nil
}

// Now returns the clock's current time, for rendering days left.
func (a *PhotoApp) Now() time.Time {
	return a.clock.Now()
}

// Close logs the operation outcome and closes the database and log file.
func (a *PhotoApp) Close() error {
	var firstErr error

	if a.op.Failed() {
		a.logger.Warn("operation finished", "operation", a.op.Name, "status", a.op.Status)
	} else {
		a.logger.Info("operation finished", "operation", a.op.Name, "status", a.op.Status)
	}

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

func (a *PhotoApp) withID(idPrefix string, fn func(string) error) (string, error) {
	id, err := a.resolveID(idPrefix)
	if err != nil {
		return "", a.op.Record(err)
	}
	return id, a.op.Record(fn(id))
}

// resolveID expands a unique prefix into a full photo id. An exact match
// always wins.
func (a *PhotoApp) resolveID(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", photo.ErrNotFound)
	}

	gallery, err := a.manager.Gallery()
	if err != nil {
		return "", err
	}
	trash, err := a.manager.TrashList()
	if err != nil {
		return "", err
	}

	var matches []string
	for _, rec := range append(gallery, trash...) {
		if rec.ID == prefix {
			return rec.ID, nil
		}
		if strings.HasPrefix(rec.ID, prefix) {
			matches = append(matches, rec.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", photo.ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s (%d matches)", ErrAmbiguousID, prefix, len(matches))
	}
}

// readCapture loads an image file, taking missing dimensions from its header.
func readCapture(path string, opts CaptureOptions) (photo.Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return photo.Capture{}, fmt.Errorf("reading image: %w", err)
	}

	w, h := opts.Width, opts.Height
	if w == 0 || h == 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return photo.Capture{}, fmt.Errorf("%w: cannot read dimensions of %s: %v", photo.ErrInvalidCapture, path, err)
		}
		if w == 0 {
			w = cfg.Width
		}
		if h == 0 {
			h = cfg.Height
		}
	}

	return photo.Capture{Data: data, Width: w, Height: h, GroupRef: opts.GroupRef}, nil
}
