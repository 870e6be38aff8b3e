// Package storage defines the file-system abstraction behind the document
// cache.
package storage

import "github.com/koukeneko/blogd/internal/models"

// Provider is the interface for cache file operations. Paths are relative to
// the cache root.
type Provider interface {
	// List returns metadata for every file under dir. Hidden files are skipped.
	List(dir string) ([]models.FileMeta, error)
	// Stat returns metadata for the file at path.
	Stat(path string) (models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
