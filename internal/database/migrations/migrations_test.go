package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	for _, table := range []string{"photos", "counters", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Fatal("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if v != 2 {
		t.Errorf("LatestVersion() = %d, want 2", v)
	}
}

func TestSchema_PhotoLifecycleColumnsAgree(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tests := []struct {
		name      string
		state     string
		trashedAt any
		wantErr   bool
	}{
		{name: "active without trashed_at", state: "active", trashedAt: nil},
		{name: "trashed with trashed_at", state: "trashed", trashedAt: int64(1700000000000)},
		{name: "active with trashed_at", state: "active", trashedAt: int64(1700000000000), wantErr: true},
		{name: "trashed without trashed_at", state: "trashed", trashedAt: nil, wantErr: true},
		{name: "unknown state", state: "deleted", trashedAt: nil, wantErr: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Exec(`
				INSERT INTO photos (id, position, blob_ref, captured_at, width, height, state, trashed_at)
				VALUES (?, ?, ?, 1700000000000, 640, 480, ?, ?)`,
				tt.name, i, tt.name+".jpg", tt.state, tt.trashedAt)
			if (err != nil) != tt.wantErr {
				t.Errorf("insert error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchema_BlobRefUnique(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := `INSERT INTO photos (id, position, blob_ref, captured_at, width, height, state)
		VALUES (?, ?, 'shared.jpg', 1700000000000, 640, 480, 'active')`
	if _, err := db.Exec(insert, "photo-1", 0); err != nil {
		t.Fatalf("Failed to insert first photo: %v", err)
	}
	if _, err := db.Exec(insert, "photo-2", 1); err == nil {
		t.Error("Expected unique constraint violation for shared blob_ref, but insert succeeded")
	}
}

func TestSchema_SingleCountersRow(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO counters (id) VALUES (1)"); err != nil {
		t.Fatalf("Failed to insert counters row: %v", err)
	}
	if _, err := db.Exec("INSERT INTO counters (id) VALUES (2)"); err == nil {
		t.Error("Expected check constraint violation for a second counters row, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	return db
}
