package photo

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func trashedRecord(id string, at time.Time) *Record {
	return &Record{ID: id, BlobRef: id + ".jpg", CapturedAt: at, Width: 4, Height: 3, Lifecycle: TrashedAt(at)}
}

func activeRecord(id string) *Record {
	return &Record{ID: id, BlobRef: id + ".jpg", CapturedAt: t0, Width: 4, Height: 3, Lifecycle: Active()}
}

func TestLifecycle(t *testing.T) {
	var zero Lifecycle
	if !zero.IsActive() {
		t.Error("zero Lifecycle is not active")
	}
	if _, ok := Active().TrashedAt(); ok {
		t.Error("Active().TrashedAt() ok = true")
	}

	lc := TrashedAt(t0)
	if !lc.IsTrashed() || lc.IsActive() {
		t.Errorf("TrashedAt() state = %v", lc.State())
	}
	if at, ok := lc.TrashedAt(); !ok || !at.Equal(t0) {
		t.Errorf("TrashedAt() = %v, %v; want %v, true", at, ok, t0)
	}
	if lc.State().String() != "trashed" || Active().State().String() != "active" {
		t.Errorf("State.String() = %q, %q", lc.State(), Active().State())
	}
}

func TestRecord_Expired(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{name: "fresh", age: 0, want: false},
		{name: "six days", age: 6 * 24 * time.Hour, want: false},
		{name: "exactly seven days", age: TrashRetention, want: false},
		{name: "seven days and a millisecond", age: TrashRetention + time.Millisecond, want: true},
		{name: "eight days", age: 8 * 24 * time.Hour, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := trashedRecord("a", t0)
			if got := r.Expired(t0.Add(tt.age)); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}

	if activeRecord("b").Expired(t0.Add(30 * 24 * time.Hour)) {
		t.Error("active record reported expired")
	}
}

func TestRecord_DaysLeft(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want int
	}{
		{name: "just trashed", age: 0, want: 7},
		{name: "23 hours", age: 23 * time.Hour, want: 7},
		{name: "one day", age: 24 * time.Hour, want: 6},
		{name: "six and a half days", age: 156 * time.Hour, want: 1},
		{name: "seven days", age: TrashRetention, want: 0},
		{name: "long past", age: 30 * 24 * time.Hour, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := trashedRecord("a", t0)
			if got := r.DaysLeft(t0.Add(tt.age)); got != tt.want {
				t.Errorf("DaysLeft() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecord_Clone(t *testing.T) {
	r := activeRecord("a")
	c := r.Clone()
	c.Lifecycle = TrashedAt(t0)
	if !r.Lifecycle.IsActive() {
		t.Error("mutating the clone changed the original")
	}
}

func TestCollection_TrashedOldestFirst(t *testing.T) {
	col := collection{
		trashedRecord("c", t0),
		activeRecord("x"),
		trashedRecord("b", t0),
		trashedRecord("a", t0.Add(time.Second)),
		trashedRecord("d", t0.Add(-time.Second)),
	}

	var got []string
	for _, r := range col.trashedOldestFirst() {
		got = append(got, r.ID)
	}
	want := []string{"d", "b", "c", "a"}
	if len(got) != len(want) {
		t.Fatalf("trashedOldestFirst() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trashedOldestFirst() = %v, want %v", got, want)
		}
	}
	if oldest := col.oldestTrashed(); oldest.ID != "d" {
		t.Errorf("oldestTrashed() = %s, want d", oldest.ID)
	}
	if (collection{activeRecord("x")}).oldestTrashed() != nil {
		t.Error("oldestTrashed() on a trash-free collection is not nil")
	}
}

func TestCollection_ReplaceKeepsPosition(t *testing.T) {
	col := collection{activeRecord("a"), activeRecord("b"), activeRecord("c")}
	updated := col[1].Clone()
	updated.Lifecycle = TrashedAt(t0)

	next := col.replace(updated)
	if next[1] != updated || next[0] != col[0] || next[2] != col[2] {
		t.Errorf("replace() = %v", next)
	}
	if !col[1].Lifecycle.IsActive() {
		t.Error("replace() modified the original collection")
	}
}

func TestCollection_Check(t *testing.T) {
	full := func(n int, mk func(i int) *Record) collection {
		var c collection
		for i := 0; i < n; i++ {
			c = append(c, mk(i))
		}
		return c
	}
	id := func(i int) string { return string(rune('a'+i/26)) + string(rune('a'+i%26)) }

	tests := []struct {
		name    string
		col     collection
		wantErr bool
	}{
		{name: "empty", col: collection{}},
		{
			name: "at limits",
			col: append(
				full(GalleryLimit, func(i int) *Record { return activeRecord("g" + id(i)) }),
				full(TrashLimit, func(i int) *Record { return trashedRecord("t"+id(i), t0) })...),
		},
		{name: "gallery over limit", col: full(GalleryLimit+1, func(i int) *Record { return activeRecord(id(i)) }), wantErr: true},
		{name: "trash over limit", col: full(TrashLimit+1, func(i int) *Record { return trashedRecord(id(i), t0) }), wantErr: true},
		{name: "duplicate id", col: collection{activeRecord("a"), trashedRecord("a", t0)}, wantErr: true},
		{name: "empty blob ref", col: collection{{ID: "a", Width: 1, Height: 1}}, wantErr: true},
		{name: "zero dimensions", col: collection{{ID: "a", BlobRef: "a.jpg"}}, wantErr: true},
		{name: "trashed without time", col: collection{{ID: "a", BlobRef: "a.jpg", Width: 1, Height: 1, Lifecycle: TrashedAt(time.Time{})}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.col.check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvariant) {
				t.Errorf("check() error = %v, want ErrInvariant", err)
			}
		})
	}
}

func TestIsDeclined(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: &CapacityError{Stage: StateActive, Limit: GalleryLimit}, want: true},
		{err: ErrNotFound, want: true},
		{err: ErrNotTrashed, want: true},
		{err: ErrNotActive, want: true},
		{err: ErrInvalidCapture, want: true},
		{err: storageErr("saving index", errors.New("disk full")), want: false},
		{err: ErrInvariant, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := IsDeclined(tt.err); got != tt.want {
				t.Errorf("IsDeclined(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := storageErr("saving index", cause)
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Errorf("storage error %v does not match ErrStorage and its cause", err)
	}
	if err.Error() != "saving index: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}
