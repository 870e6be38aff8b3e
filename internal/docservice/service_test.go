package docservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koukeneko/blogd/internal/apperr"
	"github.com/koukeneko/blogd/internal/catalogue"
	"github.com/koukeneko/blogd/internal/hackmd"
	"github.com/koukeneko/blogd/internal/render"
	"github.com/koukeneko/blogd/internal/storage"
)

type fakeFetcher struct {
	mu    sync.Mutex
	notes map[string]*hackmd.Note
	err   error
	calls int
}

func (f *fakeFetcher) GetNote(_ context.Context, id string) (*hackmd.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n, ok := f.notes[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

const noteContent = "<!-- {%hackmd theme-dark %} -->\n# Hello\n\nIntro text.\n\n:::warning Heads up\nSomething happened.\n:::\n\n## Details\n\n###### tags: `go` `blog`\n"

func newTestService(t *testing.T, f *fakeFetcher, opts ...Option) (*Service, *clock, *storage.FS) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)

	cat, err := catalogue.Parse([]byte(`
documents:
  - id: hello
    title: Catalogue title
    category: 程式
    featured: true
  - id: other
    title: Another
    tags: [misc]
settings:
  cache_time: 10
`))
	require.NoError(t, err)

	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(c.now)}, opts...)
	return New(f, store, catalogue.NewStore(cat), opts...), c, store
}

func TestGet_TranscodesAndEnriches(t *testing.T) {
	f := &fakeFetcher{notes: map[string]*hackmd.Note{"hello": {ID: "hello", Content: noteContent}}}
	svc, _, _ := newTestService(t, f, WithRenderer(render.New()))

	doc, err := svc.Get(context.Background(), "hello", GetOptions{HTML: true})
	require.NoError(t, err)

	assert.Equal(t, "Catalogue title", doc.Title)
	assert.Equal(t, "程式", doc.Category)
	assert.True(t, doc.Featured)
	assert.Equal(t, []string{"go", "blog"}, doc.Tags)
	assert.Equal(t, "Intro text. :::warning Heads up Something happened.", doc.Description)
	assert.Contains(t, doc.Content, "> [!WARNING] Heads up\n>\n> Something happened.\n")
	assert.NotContains(t, doc.Content, "hackmd")
	assert.NotContains(t, doc.Content, "tags:")
	require.Len(t, doc.TOC, 2)
	assert.Equal(t, "details", doc.TOC[1].ID)
	assert.Equal(t, 1, doc.ReadingTime)
	assert.NotEmpty(t, doc.Checksum)
	assert.Contains(t, doc.HTML, `data-callout="warning"`)
	assert.Equal(t, "https://hackmd.io/hello", doc.URL)
	assert.False(t, doc.Stale)
}

func TestGet_ServesFreshCache(t *testing.T) {
	f := &fakeFetcher{notes: map[string]*hackmd.Note{"hello": {Content: "# A\n"}}}
	svc, c, _ := newTestService(t, f)

	_, err := svc.Get(context.Background(), "hello", GetOptions{})
	require.NoError(t, err)
	c.t = c.t.Add(5 * time.Minute)
	_, err = svc.Get(context.Background(), "hello", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	_, err = svc.Get(context.Background(), "hello", GetOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestGet_ExpiredCacheRefetches(t *testing.T) {
	f := &fakeFetcher{notes: map[string]*hackmd.Note{"hello": {Content: "# A\n"}}}
	svc, c, _ := newTestService(t, f)

	_, err := svc.Get(context.Background(), "hello", GetOptions{})
	require.NoError(t, err)

	f.notes["hello"] = &hackmd.Note{Content: "# B\n"}
	c.t = c.t.Add(11 * time.Minute)
	doc, err := svc.Get(context.Background(), "hello", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "# B\n", doc.Content)
	assert.Equal(t, 2, f.calls)
}

func TestGet_StaleFallback(t *testing.T) {
	f := &fakeFetcher{notes: map[string]*hackmd.Note{"hello": {Content: "# A\n"}}}
	svc, c, _ := newTestService(t, f)

	_, err := svc.Get(context.Background(), "hello", GetOptions{})
	require.NoError(t, err)

	f.err = errors.New("network down")
	c.t = c.t.Add(time.Hour)
	doc, err := svc.Get(context.Background(), "hello", GetOptions{})
	require.NoError(t, err)
	assert.True(t, doc.Stale)
	assert.Equal(t, "# A\n", doc.Content)
	assert.Equal(t, "1 hour ago", doc.LastModifiedHuman)
}

func TestGet_Errors(t *testing.T) {
	f := &fakeFetcher{notes: map[string]*hackmd.Note{}}
	svc, _, _ := newTestService(t, f)

	_, err := svc.Get(context.Background(), "../etc/passwd", GetOptions{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Get(context.Background(), "missing", GetOptions{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, f.calls)
}

func TestGet_UncataloguedUsesNoteMetadata(t *testing.T) {
	modified := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeFetcher{notes: map[string]*hackmd.Note{"loose": {
		Title:     "API title",
		Tags:      []string{"api"},
		Content:   "# Heading\n\n# Heading\n",
		UpdatedAt: hackmd.Millis{Time: modified},
		FromAPI:   true,
	}}}
	svc, _, _ := newTestService(t, f, WithUniqueIDs(true))

	doc, err := svc.Get(context.Background(), "loose", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "API title", doc.Title)
	assert.Equal(t, []string{"api"}, doc.Tags)
	assert.Equal(t, modified, doc.LastModified)
	assert.Empty(t, doc.HTML)
	require.Len(t, doc.TOC, 2)
	assert.Equal(t, "heading-2", doc.TOC[1].ID)
}

func TestRefresh_FetchesAndPrunes(t *testing.T) {
	f := &fakeFetcher{notes: map[string]*hackmd.Note{
		"hello": {Content: "# Hello\n"},
		"gone":  {Content: "# Gone\n"},
	}}
	svc, _, store := newTestService(t, f)

	// Cache an uncatalogued note so the refresh has something to prune.
	_, err := svc.Get(context.Background(), "gone", GetOptions{})
	require.NoError(t, err)

	var seen []string
	report, err := svc.Refresh(context.Background(), func(id string, err error) {
		seen = append(seen, id)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "other"}, seen)
	assert.Equal(t, []string{"hello"}, report.Refreshed)
	assert.Equal(t, []string{"other"}, report.Failed)
	assert.Equal(t, []string{"gone"}, report.Pruned)

	_, err = store.Stat("gone.json")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = store.Stat("hello.json")
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	f := &fakeFetcher{notes: map[string]*hackmd.Note{"other": {Content: "# Other\n"}}}
	svc, _, _ := newTestService(t, f)

	_, err := svc.Get(context.Background(), "other", GetOptions{})
	require.NoError(t, err)

	res := svc.List(ListQuery{})
	require.Len(t, res.Documents, 2)
	// Date sort puts cached documents first.
	assert.Equal(t, "other", res.Documents[0].ID)
	assert.True(t, res.Documents[0].Cached)
	assert.Nil(t, res.Documents[1].LastModified)
	assert.Equal(t, []string{"misc"}, res.Tags)

	res = svc.List(ListQuery{Sort: catalogue.SortTitle})
	assert.Equal(t, "Another", res.Documents[0].Title)

	res = svc.List(ListQuery{Featured: true})
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "hello", res.Documents[0].ID)

	res = svc.List(ListQuery{Tag: "misc"})
	require.Len(t, res.Documents, 1)

	res = svc.List(ListQuery{Q: "catalogue"})
	require.Len(t, res.Documents, 1)

	// Filters combine.
	res = svc.List(ListQuery{Q: "another", Tag: "misc"})
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "other", res.Documents[0].ID)
	res = svc.List(ListQuery{Tag: "misc", Featured: true})
	assert.Empty(t, res.Documents)

	res = svc.List(ListQuery{Page: 2, Limit: 1})
	require.Len(t, res.Documents, 1)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasPrevPage)
	assert.False(t, res.Pagination.HasNextPage)

	res = svc.List(ListQuery{Page: 9})
	assert.Empty(t, res.Documents)
}
