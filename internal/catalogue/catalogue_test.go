package catalogue

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
documents:
  - id: note-one
    title: Go Concurrency
    description: channels and goroutines
    category: 程式
    tags: [go, concurrency]
    featured: true
  - id: "@koukeneko/diary"
    title: 日記
    description: daily notes
    tags: [life]
settings:
  items_per_page: 5
  default_sort: title
`

func TestParse_AppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, c.Documents, 2)
	assert.Equal(t, 5, c.Settings.ItemsPerPage)
	assert.Equal(t, SortTitle, c.Settings.DefaultSort)
	assert.Equal(t, 10, c.Settings.CacheTime)
	assert.True(t, c.Settings.EnableSearch)
}

func TestParse_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"missing id":   "documents:\n  - title: x\n",
		"bad id":       "documents:\n  - id: 'a b'\n    title: x\n",
		"duplicate id": "documents:\n  - id: a\n    title: x\n  - id: a\n    title: y\n",
		"bad sort":     "settings:\n  default_sort: random\n",
		"bad yaml":     "documents: [",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestStore_Queries(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	s := NewStore(c)

	d, ok := s.Find("@koukeneko/diary")
	require.True(t, ok)
	assert.Equal(t, "日記", d.Title)
	_, ok = s.Find("missing")
	assert.False(t, ok)

	require.Len(t, s.Featured(), 1)
	assert.Equal(t, "note-one", s.Featured()[0].ID)
	require.Len(t, s.ByTag("life"), 1)
	assert.Len(t, s.Search("GOROUTINES"), 1)
	assert.Len(t, s.Search("concurrency"), 1)
	assert.Len(t, s.Search(""), 2)
	assert.Empty(t, s.Search("nothing"))
}

func TestStore_AllIsACopy(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	s := NewStore(c)

	all := s.All()
	all[0].Title = "changed"
	d, _ := s.Find("note-one")
	assert.Equal(t, "Go Concurrency", d.Title)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("abc_DEF-123"))
	assert.True(t, ValidID("@user/note"))
	assert.False(t, ValidID("../etc/passwd"))
	assert.False(t, ValidID("a/b/c"))
	assert.False(t, ValidID(""))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	store := NewStore(c)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	go Watch(ctx, store, path, logger, func(*Catalogue) { reloads.Add(1) })
	time.Sleep(100 * time.Millisecond)

	// A broken write must not replace the good catalogue.
	require.NoError(t, os.WriteFile(path, []byte("documents: ["), 0o644))
	time.Sleep(400 * time.Millisecond)
	assert.Len(t, store.All(), 2)

	require.NoError(t, os.WriteFile(path, []byte("documents:\n  - id: only\n    title: Only\n"), 0o644))
	assert.Eventually(t, func() bool {
		return len(store.All()) == 1 && reloads.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)

	// Unrelated files in the directory are ignored.
	before := reloads.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, before, reloads.Load())
}
