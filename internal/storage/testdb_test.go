package storage

import (
	"fmt"
	"os"
	"testing"
)

// newTestDB opens a temp-file SQLite database with the given logical name
// and migrates it, returning a cleanup func. Mirrors the pattern used
// across this codebase's storage tests: an isolated file per test avoids
// the shared-cache quirks of ":memory:" under concurrent access.
func newTestDB(t *testing.T, name string, profile Profile) (*DB, func()) {
	t.Helper()

	tmp, err := os.CreateTemp("", fmt.Sprintf("gugo_test_%s_*.db", name))
	if err != nil {
		t.Fatalf("create temp db file: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()

	db, err := OpenDB(Config{Path: path, Profile: profile, Name: name})
	if err != nil {
		_ = os.Remove(path)
		t.Fatalf("open test db %s: %v", name, err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
	}
}
