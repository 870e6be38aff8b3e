// Package testutil provides shared test helpers for setting up the posts
// database, the document cache and the catalogue.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/koukeneko/blogd/internal/catalogue"
	"github.com/koukeneko/blogd/internal/posts"
	"github.com/koukeneko/blogd/internal/storage"
)

// TestDB creates a temporary posts database with the schema applied. It is
// closed and removed when the test ends.
func TestDB(t *testing.T) *posts.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "blogd-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := posts.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	return db
}

// TestCache creates a temporary document cache directory with a
// storage.Provider.
func TestCache(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestCatalogue writes body to a catalogue file in a temp dir and returns its
// path and a store loaded from it.
func TestCatalogue(t *testing.T, body string) (string, *catalogue.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := catalogue.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, catalogue.NewStore(cat)
}
