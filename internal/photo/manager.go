package photo

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// reconcileWorkers bounds concurrent blob existence checks during Reconcile.
const reconcileWorkers = 8

// Capture is the output of the camera: encoded image bytes plus dimensions.
// The manager does not look inside Data.
type Capture struct {
	Data     []byte
	Width    int
	Height   int
	GroupRef string
}

func (c Capture) validate() error {
	if len(c.Data) == 0 {
		return fmt.Errorf("%w: empty image data", ErrInvalidCapture)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidCapture, c.Width, c.Height)
	}
	return nil
}

// Manager is the photo lifecycle orchestrator. It owns the capacity limits,
// the Active/Trashed transitions, trash eviction and expiry, and the write
// ordering between the blob store and the index.
//
// Every public method is a critical section over the whole collection: it
// loads the index, works on that copy, and saves it back in full. A single
// mutex serializes them, so a Manager must be the only writer of its index.
type Manager struct {
	mu     sync.Mutex
	index  Index
	blobs  BlobStore
	stats  *StatsAggregator
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewManager creates a Manager. stats must already be initialized.
func NewManager(index Index, blobs BlobStore, stats *StatsAggregator, logger Logger, clock Clock, idgen IDGenerator) *Manager {
	return &Manager{
		index:  index,
		blobs:  blobs,
		stats:  stats,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Commit saves a capture straight into the gallery.
// It fails with a *CapacityError when the gallery is full. The blob is
// written before the index; if the index write fails the blob is removed again.
func (m *Manager) Commit(c Capture) (*Record, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	col, _, err := m.sweepLocked(now)
	if err != nil {
		return nil, err
	}

	if n := col.count(StateActive); n >= GalleryLimit {
		m.logger.Warn("commit declined: gallery full", "count", n)
		return nil, &CapacityError{Stage: StateActive, Limit: GalleryLimit}
	}

	rec, err := m.storeLocked(col, c, Active(), now)
	if err != nil {
		return nil, err
	}
	if err := m.saveNewLocked(col.with(rec), rec); err != nil {
		return nil, err
	}

	m.recordStats(EventCaptured, EventSaved)
	m.logger.Info("photo committed", "id", rec.ID, "size", rec.Size)
	return rec, nil
}

// Discard saves a capture straight into the trash. When the trash is full
// the oldest trashed photo is purged first to make room.
func (m *Manager) Discard(c Capture) (*Record, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	col, _, err := m.sweepLocked(now)
	if err != nil {
		return nil, err
	}

	if col.count(StateTrashed) >= TrashLimit {
		if col, err = m.evictOldestLocked(col); err != nil {
			return nil, err
		}
	}

	rec, err := m.storeLocked(col, c, TrashedAt(now), now)
	if err != nil {
		return nil, err
	}
	if err := m.saveNewLocked(col.with(rec), rec); err != nil {
		return nil, err
	}

	m.recordStats(EventCaptured, EventDiscarded)
	m.logger.Info("photo discarded", "id", rec.ID, "size", rec.Size)
	return rec, nil
}

// Trash moves a gallery photo into the trash, evicting the oldest trashed
// photo first when the trash is full.
func (m *Manager) Trash(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	col, _, err := m.sweepLocked(now)
	if err != nil {
		return err
	}

	rec := col.find(id)
	if rec == nil {
		m.logger.Warn("trash declined: not found", "id", id)
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !rec.Lifecycle.IsActive() {
		m.logger.Warn("trash declined: not active", "id", id, "state", rec.Lifecycle.State())
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}

	if col.count(StateTrashed) >= TrashLimit {
		if col, err = m.evictOldestLocked(col); err != nil {
			return err
		}
	}

	updated := rec.Clone()
	updated.Lifecycle = TrashedAt(now)
	if err := m.saveLocked(col.replace(updated)); err != nil {
		return err
	}

	m.logger.Info("photo trashed", "id", id)
	return nil
}

// Recover moves a trashed photo back into the gallery. It is declined when
// the photo is unknown, not trashed, or the gallery is full.
func (m *Manager) Recover(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	col, _, err := m.sweepLocked(now)
	if err != nil {
		return err
	}

	rec := col.find(id)
	if rec == nil {
		m.logger.Warn("recover declined: not found", "id", id)
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !rec.Lifecycle.IsTrashed() {
		m.logger.Warn("recover declined: not trashed", "id", id)
		return fmt.Errorf("%w: %s", ErrNotTrashed, id)
	}
	if n := col.count(StateActive); n >= GalleryLimit {
		m.logger.Warn("recover declined: gallery full", "id", id, "count", n)
		return &CapacityError{Stage: StateActive, Limit: GalleryLimit}
	}

	updated := rec.Clone()
	updated.Lifecycle = Active()
	if err := m.saveLocked(col.replace(updated)); err != nil {
		return err
	}

	m.logger.Info("photo recovered", "id", id)
	return nil
}

// PurgeOne permanently deletes a photo in either stage. The blob goes first;
// if that fails the record is kept.
func (m *Manager) PurgeOne(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, err := m.loadLocked()
	if err != nil {
		return err
	}

	rec := col.find(id)
	if rec == nil {
		m.logger.Warn("purge declined: not found", "id", id)
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	_, err = m.purgeLocked(col, rec)
	return err
}

// PurgeAllTrash purges every trashed photo. Each one is attempted even if an
// earlier one fails; the returned error joins all failures.
func (m *Manager) PurgeAllTrash() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, err := m.loadLocked()
	if err != nil {
		return 0, err
	}

	col, purged, err := m.purgeEachLocked(col, col.trashedOldestFirst())
	if err != nil {
		m.logger.Error("emptying trash incomplete", "purged", purged, "remaining", col.count(StateTrashed), "error", err)
		return purged, fmt.Errorf("emptying trash: %w", err)
	}

	m.logger.Info("trash emptied", "purged", purged)
	return purged, nil
}

// SweepExpiredTrash purges trashed photos older than the retention window
// and returns how many were removed. Every other operation already runs it
// first; calling it directly is only useful for maintenance.
func (m *Manager) SweepExpiredTrash() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, n, err := m.sweepLocked(m.now())
	return n, err
}

// Gallery returns the Active photos, newest capture first.
func (m *Manager) Gallery() ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, _, err := m.sweepLocked(m.now())
	if err != nil {
		return nil, err
	}

	out := col.filter(StateActive)
	slices.SortStableFunc(out, func(a, b *Record) int {
		if n := b.CapturedAt.Compare(a.CapturedAt); n != 0 {
			return n
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// TrashList returns the Trashed photos, most recently trashed first.
func (m *Manager) TrashList() ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, _, err := m.sweepLocked(m.now())
	if err != nil {
		return nil, err
	}

	out := col.trashedOldestFirst()
	slices.Reverse(out)
	return out, nil
}

// Get returns one photo by id.
func (m *Manager) Get(id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, _, err := m.sweepLocked(m.now())
	if err != nil {
		return nil, err
	}

	rec := col.find(id)
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Open writes a photo's image bytes to w.
func (m *Manager) Open(id string, w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, _, err := m.sweepLocked(m.now())
	if err != nil {
		return err
	}

	rec := col.find(id)
	if rec == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := m.blobs.Get(rec.BlobRef, w); err != nil {
		return storageErr("reading blob", err)
	}
	return nil
}

// Stats returns the cumulative counters merged with the live collection.
func (m *Manager) Stats() (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, _, err := m.sweepLocked(m.now())
	if err != nil {
		return Stats{}, err
	}
	return m.stats.Snapshot(col), nil
}

// ReconcileReport lists what Reconcile repaired.
type ReconcileReport struct {
	OrphanBlobs     []string // blob refs with no record, now deleted
	DanglingRecords []string // record ids whose blob was missing, now dropped
}

// Reconcile repairs divergence left behind by a failed second write:
// blobs nobody references are deleted, and records whose blob no longer
// exists are dropped from the index.
func (m *Manager) Reconcile() (*ReconcileReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, err := m.loadLocked()
	if err != nil {
		return nil, err
	}

	refs, err := m.blobs.List()
	if err != nil {
		return nil, storageErr("listing blobs", err)
	}

	report := &ReconcileReport{}
	referenced := make(map[string]struct{}, len(col))
	for _, r := range col {
		referenced[r.BlobRef] = struct{}{}
	}

	var errs []error
	for _, ref := range refs {
		if _, ok := referenced[ref]; ok {
			continue
		}
		if err := m.blobs.Delete(ref); err != nil {
			errs = append(errs, storageErr("deleting orphan blob "+ref, err))
			continue
		}
		report.OrphanBlobs = append(report.OrphanBlobs, ref)
		m.logger.Info("orphan blob deleted", "ref", ref)
	}

	exists := make([]bool, len(col))
	checkErrs := make([]error, len(col))
	var g errgroup.Group
	g.SetLimit(reconcileWorkers)
	for i, r := range col {
		g.Go(func() error {
			exists[i], checkErrs[i] = m.blobs.Exists(r.BlobRef)
			return nil
		})
	}
	_ = g.Wait()

	next := col
	for i, r := range col {
		if checkErrs[i] != nil {
			errs = append(errs, storageErr("checking blob "+r.BlobRef, checkErrs[i]))
			continue
		}
		if !exists[i] {
			next = next.without(r.ID)
			report.DanglingRecords = append(report.DanglingRecords, r.ID)
			m.logger.Warn("dangling record dropped", "id", r.ID, "ref", r.BlobRef)
		}
	}

	if len(report.DanglingRecords) > 0 {
		if err := m.saveLocked(next); err != nil {
			errs = append(errs, err)
		}
	}

	return report, errors.Join(errs...)
}

// now is the clock time truncated to the millisecond precision the index stores.
func (m *Manager) now() time.Time {
	return time.UnixMilli(m.clock.Now().UnixMilli())
}

// loadLocked reads and checks the full collection.
func (m *Manager) loadLocked() (collection, error) {
	records, err := m.index.Load()
	if err != nil {
		return nil, storageErr("loading index", err)
	}
	col := collection(records)
	if err := col.check(); err != nil {
		m.logger.Error("index failed invariant check", "error", err)
		return nil, err
	}
	return col, nil
}

// saveLocked checks and writes the full collection.
func (m *Manager) saveLocked(col collection) error {
	if err := col.check(); err != nil {
		m.logger.Error("refusing to save collection", "error", err)
		return err
	}
	if err := m.index.Save(col); err != nil {
		return storageErr("saving index", err)
	}
	return nil
}

// saveNewLocked saves a collection that gained rec. On failure the blob
// written for rec is deleted again so it does not become an orphan.
func (m *Manager) saveNewLocked(col collection, rec *Record) error {
	err := m.saveLocked(col)
	if err == nil {
		return nil
	}
	if delErr := m.blobs.Delete(rec.BlobRef); delErr != nil {
		m.logger.Error("orphan blob left after failed save", "id", rec.ID, "ref", rec.BlobRef, "error", delErr)
	}
	return err
}

// storeLocked mints an id and writes the capture's bytes. The record is
// not yet part of any saved collection.
func (m *Manager) storeLocked(col collection, c Capture, lc Lifecycle, now time.Time) (*Record, error) {
	id := m.idgen.New()
	if col.find(id) != nil {
		m.logger.Error("id generator returned a duplicate", "id", id)
		return nil, fmt.Errorf("%w: duplicate id %s", ErrInvariant, id)
	}

	size := int64(len(c.Data))
	ref, err := m.blobs.Put(id, bytes.NewReader(c.Data), size)
	if err != nil {
		return nil, storageErr("writing blob", err)
	}

	return &Record{
		ID:         id,
		BlobRef:    ref,
		CapturedAt: now,
		Width:      c.Width,
		Height:     c.Height,
		Size:       size,
		GroupRef:   c.GroupRef,
		Lifecycle:  lc,
	}, nil
}

// purgeLocked deletes rec's blob and then its record. It returns the
// collection as it now stands in the index.
func (m *Manager) purgeLocked(col collection, rec *Record) (collection, error) {
	if err := m.blobs.Delete(rec.BlobRef); err != nil {
		m.logger.Error("purge failed: blob not deleted", "id", rec.ID, "error", err)
		return col, storageErr("deleting blob", err)
	}

	next := col.without(rec.ID)
	if err := m.saveLocked(next); err != nil {
		m.logger.Error("purge failed: record kept for deleted blob", "id", rec.ID, "error", err)
		return col, err
	}

	m.recordStats(EventPurged)
	m.logger.Info("photo purged", "id", rec.ID, "state", rec.Lifecycle.State())
	return next, nil
}

// purgeEachLocked purges every record in targets independently.
func (m *Manager) purgeEachLocked(col collection, targets []*Record) (collection, int, error) {
	var errs []error
	purged := 0
	for _, rec := range targets {
		next, err := m.purgeLocked(col, rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("purging %s: %w", rec.ID, err))
			continue
		}
		col = next
		purged++
	}
	return col, purged, errors.Join(errs...)
}

// evictOldestLocked makes room in a full trash by purging its oldest entry.
func (m *Manager) evictOldestLocked(col collection) (collection, error) {
	oldest := col.oldestTrashed()
	if oldest == nil {
		return col, nil
	}
	m.logger.Info("evicting oldest trashed photo", "id", oldest.ID)
	next, err := m.purgeLocked(col, oldest)
	if err != nil {
		return col, fmt.Errorf("evicting %s: %w", oldest.ID, err)
	}
	return next, nil
}

// sweepLocked loads the collection and purges expired trash from it.
// Any purge failure aborts the calling operation.
func (m *Manager) sweepLocked(now time.Time) (collection, int, error) {
	col, err := m.loadLocked()
	if err != nil {
		return nil, 0, err
	}

	expired := col.expired(now)
	if len(expired) == 0 {
		return col, 0, nil
	}

	m.logger.Info("sweeping expired trash", "count", len(expired))
	col, purged, err := m.purgeEachLocked(col, expired)
	if err != nil {
		return nil, purged, fmt.Errorf("sweeping expired trash: %w", err)
	}
	return col, purged, nil
}

// recordStats updates the counters. Counters are auxiliary, so a failure is
// logged and does not undo the photo operation that already succeeded.
func (m *Manager) recordStats(events ...Event) {
	if err := m.stats.Record(events...); err != nil {
		m.logger.Warn("stats not recorded", "events", fmt.Sprint(events), "error", err)
	}
}
