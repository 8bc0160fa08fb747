package momentum

import (
	"os"
	"testing"

	"github.com/chenhom/gugo-screener/internal/storage"
)

func storageTestDB(t *testing.T) (*storage.DB, func()) {
	t.Helper()

	tmp, err := os.CreateTemp("", "gugo_momentum_test_*.db")
	if err != nil {
		t.Fatalf("create temp db file: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()

	db, err := storage.OpenDB(storage.Config{Path: path, Profile: storage.ProfileFast, Name: "price"})
	if err != nil {
		_ = os.Remove(path)
		t.Fatalf("open test db: %v", err)
	}
	return db, func() {
		_ = db.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
	}
}
