package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestOpenMigratedCreatesEpisodes(t *testing.T) {
	db, err := OpenMigrated(":memory:")
	if err != nil {
		t.Fatalf("OpenMigrated: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM episodes`).Scan(&n); err != nil {
		t.Fatalf("query episodes: %v", err)
	}
	if n != 0 {
		t.Errorf("episodes rows = %d, want 0", n)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
		"002_b.sql": {Data: []byte(`INSERT INTO a(id) VALUES (1);`)},
		"README":    {Data: []byte(`not a migration`)},
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(db, fsys); err != nil {
			t.Fatalf("Migrate pass %d: %v", i, err)
		}
	}

	var rows, applied int
	if err := db.QueryRow(`SELECT COUNT(1) FROM a`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if rows != 1 || applied != 2 {
		t.Errorf("rows, applied = %d, %d; want 1, 2", rows, applied)
	}
}

func TestMigrateRollsBackBrokenScript(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_bad.sql": {Data: []byte(`CREATE TABLE ok (id INTEGER); CREATE TABLE;`)},
	}
	if err := Migrate(db, fsys); err == nil {
		t.Fatal("Migrate() error = nil for broken script")
	}
	var applied int
	if err := db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if applied != 0 {
		t.Errorf("applied = %d, want 0", applied)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "woodoku.db")
	db, err := OpenMigrated(path)
	if err != nil {
		t.Fatalf("OpenMigrated(%s): %v", path, err)
	}
	db.Close()
}
