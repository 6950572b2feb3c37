package sqlitemigrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyMigrationsRunsAndRecords(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	source := fstest.MapFS{
		"0001_create_entries.sql": migration("CREATE TABLE entries(id TEXT PRIMARY KEY);"),
	}

	if err := ApplyMigrations(db, source, ""); err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	if !tableExists(t, db, "entries") {
		t.Error("expected migrated table to exist")
	}
	if got := countApplied(t, db); got != 1 {
		t.Errorf("applied rows = %d, want 1", got)
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	source := fstest.MapFS{
		"0001_create_entries.sql": migration("CREATE TABLE entries(id TEXT PRIMARY KEY);"),
	}

	for i := 0; i < 2; i++ {
		if err := ApplyMigrations(db, source, ""); err != nil {
			t.Fatalf("ApplyMigrations() pass %d error = %v", i+1, err)
		}
	}
	if got := countApplied(t, db); got != 1 {
		t.Errorf("applied rows after replay = %d, want 1", got)
	}
}

func TestApplyMigrationsAppliesInLexicalOrder(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	source := fstest.MapFS{
		"0002_add_column.sql":     migration("ALTER TABLE entries ADD COLUMN title TEXT;"),
		"0001_create_entries.sql": migration("CREATE TABLE entries(id TEXT PRIMARY KEY);"),
	}

	if err := ApplyMigrations(db, source, ""); err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	if got := countApplied(t, db); got != 2 {
		t.Errorf("applied rows = %d, want 2", got)
	}
}

func TestApplyMigrationsLeavesFailureUnrecorded(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	broken := fstest.MapFS{
		"0001_create_entries.sql": migration("CREAT TABLE entries(id TEXT);"),
	}

	if err := ApplyMigrations(db, broken, ""); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if got := countApplied(t, db); got != 0 {
		t.Fatalf("applied rows after failure = %d, want 0", got)
	}

	fixed := fstest.MapFS{
		"0001_create_entries.sql": migration("CREATE TABLE entries(id TEXT PRIMARY KEY);"),
	}
	if err := ApplyMigrations(db, fixed, ""); err != nil {
		t.Fatalf("ApplyMigrations() fixed error = %v", err)
	}
	if got := countApplied(t, db); got != 1 {
		t.Errorf("applied rows after fix = %d, want 1", got)
	}
}

func TestApplyMigrationsKeysIncludeRoot(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	source := fstest.MapFS{
		"reminders/0001_create_reminders.sql": migration("CREATE TABLE reminders(id TEXT PRIMARY KEY);"),
	}

	if err := ApplyMigrations(db, source, "reminders"); err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}

	var key string
	if err := db.QueryRow("SELECT name FROM schema_migrations LIMIT 1").Scan(&key); err != nil {
		t.Fatalf("read migration key: %v", err)
	}
	if key != "reminders/0001_create_reminders.sql" {
		t.Errorf("migration key = %q, want root-prefixed path", key)
	}
}

func migration(up string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("-- +migrate Up\n" + up + "\n")}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	})
	return db
}

func countApplied(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count applied migrations: %v", err)
	}
	return count
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("look up table %s: %v", table, err)
	}
	return true
}
