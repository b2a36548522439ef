package sqlitemigrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyRecordsMigrations(t *testing.T) {
	db := openTestDB(t)

	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
	}
	if err := Apply(db, migrations); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	var name string
	if err := db.QueryRow("SELECT name FROM schema_migrations").Scan(&name); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if name != "001_create.sql" {
		t.Errorf("recorded migration = %q, want %q", name, "001_create.sql")
	}
}

func TestApplyRunsEachFileOnce(t *testing.T) {
	db := openTestDB(t)

	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
	}
	if err := Apply(db, migrations); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	// A second run must skip the already-applied file instead of
	// failing on the duplicate table.
	if err := Apply(db, migrations); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
}

func TestApplyOrdersByName(t *testing.T) {
	db := openTestDB(t)

	migrations := fstest.MapFS{
		"002_add_column.sql": &fstest.MapFile{Data: []byte("ALTER TABLE items ADD COLUMN name TEXT;")},
		"001_create.sql":     &fstest.MapFile{Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
	}
	if err := Apply(db, migrations); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if _, err := db.Exec("INSERT INTO items (id, name) VALUES ('a', 'b')"); err != nil {
		t.Fatalf("insert after migrations: %v", err)
	}
}
