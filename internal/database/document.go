package database

import (
	"encoding/json"
	"fmt"
	"time"

	"swipecam/internal/photo"
)

const (
	stateActive  = "active"
	stateTrashed = "trashed"
)

// recordDoc is the persisted shape of one photo record. Timestamps are epoch
// milliseconds.
type recordDoc struct {
	ID         string `json:"id"`
	BlobRef    string `json:"blobRef"`
	CapturedAt int64  `json:"capturedAt"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Size       int64  `json:"size"`
	GroupRef   string `json:"groupRef,omitempty"`
	State      string `json:"state"`
	TrashedAt  *int64 `json:"trashedAt,omitempty"`
}

type indexDoc struct {
	Version int         `json:"version"`
	Photos  []recordDoc `json:"photos"`
}

type countersDoc struct {
	Captured  int64 `json:"captured"`
	Saved     int64 `json:"saved"`
	Discarded int64 `json:"discarded"`
	Purged    int64 `json:"purged"`
}

const indexDocVersion = 1

// encodeIndex serializes the whole collection in order.
func encodeIndex(records []*photo.Record) ([]byte, error) {
	doc := indexDoc{Version: indexDocVersion, Photos: make([]recordDoc, 0, len(records))}
	for _, r := range records {
		doc.Photos = append(doc.Photos, toDoc(r))
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}
	return data, nil
}

// decodeIndex parses a document written by encodeIndex. Empty input is an
// empty collection.
func decodeIndex(data []byte) ([]*photo.Record, error) {
	if len(data) == 0 {
		return []*photo.Record{}, nil
	}
	var doc indexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	if doc.Version != indexDocVersion {
		return nil, fmt.Errorf("decoding index: unsupported version %d", doc.Version)
	}

	records := make([]*photo.Record, 0, len(doc.Photos))
	for _, d := range doc.Photos {
		rec, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func fromDoc(d recordDoc) (*photo.Record, error) {
	lc, err := lifecycleFrom(d.State, d.TrashedAt)
	if err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", d.ID, err)
	}
	return &photo.Record{
		ID:         d.ID,
		BlobRef:    d.BlobRef,
		CapturedAt: time.UnixMilli(d.CapturedAt),
		Width:      d.Width,
		Height:     d.Height,
		Size:       d.Size,
		GroupRef:   d.GroupRef,
		Lifecycle:  lc,
	}, nil
}

func toDoc(r *photo.Record) recordDoc {
	d := recordDoc{
		ID:         r.ID,
		BlobRef:    r.BlobRef,
		CapturedAt: r.CapturedAt.UnixMilli(),
		Width:      r.Width,
		Height:     r.Height,
		Size:       r.Size,
		GroupRef:   r.GroupRef,
		State:      stateActive,
	}
	if at, ok := r.Lifecycle.TrashedAt(); ok {
		ms := at.UnixMilli()
		d.State = stateTrashed
		d.TrashedAt = &ms
	}
	return d
}

// lifecycleFrom rebuilds a Lifecycle from its stored columns. A trashed
// record must carry trashedAt and an active one must not.
func lifecycleFrom(state string, trashedAt *int64) (photo.Lifecycle, error) {
	switch state {
	case stateActive:
		if trashedAt != nil {
			return photo.Lifecycle{}, fmt.Errorf("active record has trashedAt")
		}
		return photo.Active(), nil
	case stateTrashed:
		if trashedAt == nil {
			return photo.Lifecycle{}, fmt.Errorf("trashed record has no trashedAt")
		}
		return photo.TrashedAt(time.UnixMilli(*trashedAt)), nil
	default:
		return photo.Lifecycle{}, fmt.Errorf("unknown state %q", state)
	}
}

func encodeCounters(c photo.Counters) ([]byte, error) {
	data, err := json.Marshal(countersDoc(c))
	if err != nil {
		return nil, fmt.Errorf("encoding counters: %w", err)
	}
	return data, nil
}

func decodeCounters(data []byte) (photo.Counters, error) {
	if len(data) == 0 {
		return photo.Counters{}, nil
	}
	var doc countersDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return photo.Counters{}, fmt.Errorf("decoding counters: %w", err)
	}
	return photo.Counters(doc), nil
}
