package database_test

import (
	"errors"
	"path/filepath"
	"testing"

	"simplstream/internal/database"
	"simplstream/internal/storage"
)

func openTestDB(t *testing.T) (*database.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "simplstream.db")
	db, err := database.NewDB(database.Config{DatabasePath: path})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, path
}

func TestNewDBRequiresPath(t *testing.T) {
	if _, err := database.NewDB(database.Config{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestSetGetRemove(t *testing.T) {
	db, _ := openTestDB(t)

	if _, ok, err := db.Get(storage.KeyTheme); err != nil || ok {
		t.Fatalf("expected missing key, ok=%t err=%v", ok, err)
	}

	if err := db.Set(storage.KeyTheme, "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Set(storage.KeyTheme, "light"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, ok, err := db.Get(storage.KeyTheme)
	if err != nil || !ok || value != "light" {
		t.Fatalf("unexpected get result %q ok=%t err=%v", value, ok, err)
	}

	if err := db.Remove(storage.KeyTheme); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := db.Get(storage.KeyTheme); ok {
		t.Fatalf("expected key to be removed")
	}
}

func TestUpdateAbortLeavesRowUntouched(t *testing.T) {
	db, _ := openTestDB(t)
	if err := db.Set(storage.KeyWatchlist, "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}

	boom := errors.New("boom")
	err := db.Update(storage.KeyWatchlist, func(current string, ok bool) (string, bool, error) {
		return "", false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	value, _, _ := db.Get(storage.KeyWatchlist)
	if value != "[]" {
		t.Fatalf("expected row untouched, got %q", value)
	}
}

func TestMutateJSONPersistsAcrossReopen(t *testing.T) {
	db, path := openTestDB(t)

	err := storage.MutateJSON(db, storage.KeySearchHistory, func() map[string][]string {
		return map[string][]string{}
	}, func(doc map[string][]string) (map[string][]string, error) {
		doc["p1"] = []string{"dune"}
		return doc, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	_ = db.Close()

	reopened, err := database.NewDB(database.Config{DatabasePath: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	var doc map[string][]string
	if err := storage.ReadJSON(reopened, storage.KeySearchHistory, &doc); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(doc["p1"]) != 1 || doc["p1"][0] != "dune" {
		t.Fatalf("unexpected document after reopen: %v", doc)
	}
}
