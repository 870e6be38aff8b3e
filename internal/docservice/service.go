// Package docservice serves blog documents: it fetches notes from HackMD,
// keeps a disk cache, rewrites call-outs into canonical form and attaches the
// outline, reading time and catalogue overrides.
package docservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/koukeneko/blogd/internal/apperr"
	"github.com/koukeneko/blogd/internal/catalogue"
	"github.com/koukeneko/blogd/internal/checksum"
	"github.com/koukeneko/blogd/internal/hackmd"
	"github.com/koukeneko/blogd/internal/markdown"
	"github.com/koukeneko/blogd/internal/metrics"
	"github.com/koukeneko/blogd/internal/models"
	"github.com/koukeneko/blogd/internal/render"
	"github.com/koukeneko/blogd/internal/storage"
)

// Fetcher loads a note from its origin.
type Fetcher interface {
	GetNote(ctx context.Context, id string) (*hackmd.Note, error)
}

// Document is a fully prepared blog document.
type Document struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Category          string             `json:"category,omitempty"`
	Tags              []string           `json:"tags"`
	Featured          bool               `json:"featured"`
	PublishType       string             `json:"publishType,omitempty"`
	URL               string             `json:"url"`
	Content           string             `json:"content"`
	HTML              string             `json:"html,omitempty"`
	TOC               []markdown.Heading `json:"toc"`
	ReadingTime       int                `json:"readingTime"`
	Checksum          string             `json:"checksum"`
	LastModified      time.Time          `json:"lastModified"`
	LastModifiedHuman string             `json:"lastModifiedHuman"`
	FetchedAt         time.Time          `json:"fetchedAt"`
	Stale             bool               `json:"stale"`
}

// GetOptions tune a single Get.
type GetOptions struct {
	// HTML also renders the document to HTML.
	HTML bool
	// Force bypasses a fresh cache entry.
	Force bool
}

// Option configures a Service.
type Option func(*Service)

// WithRenderer enables HTML rendering.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithUniqueIDs suffixes duplicate heading ids in the outline.
func WithUniqueIDs(on bool) Option {
	return func(s *Service) { s.uniqueIDs = on }
}

// WithCacheTTL overrides the catalogue's cache_time.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) { s.cacheTTL = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNoteURL sets how a document id maps to its public URL.
func WithNoteURL(fn func(id string) string) Option {
	return func(s *Service) { s.noteURL = fn }
}

// Service coordinates the fetcher, the cache and the catalogue.
type Service struct {
	fetcher   Fetcher
	store     storage.Provider
	catalogue *catalogue.Store
	renderer  *render.Renderer
	recorder  metrics.Recorder
	logger    *slog.Logger
	uniqueIDs bool
	cacheTTL  time.Duration
	now       func() time.Time
	noteURL   func(id string) string
}

// New creates a document service.
func New(fetcher Fetcher, store storage.Provider, cat *catalogue.Store, opts ...Option) *Service {
	s := &Service{
		fetcher:   fetcher,
		store:     store,
		catalogue: cat,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		now:       time.Now,
		noteURL: func(id string) string {
			return hackmd.DefaultDownloadBaseURL + "/" + id
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalogue returns the catalogue store the service reads overrides from.
func (s *Service) Catalogue() *catalogue.Store { return s.catalogue }

// Get returns the document with the given HackMD id.
//
// A cache entry younger than the cache TTL is served as is. Otherwise the note
// is fetched and the cache rewritten; if that fetch fails and an older entry
// exists, the entry is served with Stale set.
func (s *Service) Get(ctx context.Context, id string, opts GetOptions) (*Document, error) {
	if !catalogue.ValidID(id) {
		return nil, fmt.Errorf("docservice: invalid id %q: %w", id, apperr.ErrInvalidInput)
	}

	cached, err := s.readCache(id)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.logger.Warn("docservice: cache read failed", slog.String("id", id), slog.String("error", err.Error()))
	}

	note := cached
	stale := false
	if cached != nil && !opts.Force && s.fresh(cached) {
		s.recorder.IncCache(metrics.CacheHit)
	} else {
		fetched, fetchErr := s.fetch(ctx, id)
		switch {
		case fetchErr == nil:
			s.recorder.IncCache(metrics.CacheMiss)
			note = fetched
		case cached != nil:
			s.logger.Warn("docservice: fetch failed, serving stale cache",
				slog.String("id", id),
				slog.String("error", fetchErr.Error()))
			s.recorder.IncCache(metrics.CacheStale)
			stale = true
		default:
			return nil, fetchErr
		}
	}

	doc, err := s.build(note, opts)
	if err != nil {
		return nil, err
	}
	doc.Stale = stale
	return doc, nil
}

func (s *Service) ttl() time.Duration {
	if s.cacheTTL > 0 {
		return s.cacheTTL
	}
	return time.Duration(s.catalogue.Settings().CacheTime) * time.Minute
}

func (s *Service) fresh(n *models.CachedNote) bool {
	return s.now().Sub(n.FetchedAt) < s.ttl()
}

// fetch loads the note, cleans it and writes it to the cache. A cache write
// failure is logged; the fetched note is still returned.
func (s *Service) fetch(ctx context.Context, id string) (*models.CachedNote, error) {
	start := s.now()
	n, err := s.fetcher.GetNote(ctx, id)
	source := "download"
	if n != nil && n.FromAPI {
		source = "api"
	}
	s.recorder.ObserveFetch(source, s.now().Sub(start), err == nil)
	if err != nil {
		return nil, fmt.Errorf("docservice: fetch %s: %w", id, err)
	}

	tags := n.Tags
	if len(tags) == 0 {
		tags = markdown.HackMDTags(n.Content)
	}
	note := &models.CachedNote{
		ID:          id,
		Title:       n.Title,
		Description: n.Description,
		Tags:        tags,
		PublishType: n.PublishType,
		Content:     markdown.CleanHackMD(n.Content),
		FromAPI:     n.FromAPI,
		ModifiedAt:  n.Modified(),
		FetchedAt:   s.now(),
	}

	if err := s.writeCache(note); err != nil {
		s.logger.Warn("docservice: cache write failed", slog.String("id", id), slog.String("error", err.Error()))
	}
	return note, nil
}

func cachePath(id string) string {
	return id + ".json"
}

func (s *Service) readCache(id string) (*models.CachedNote, error) {
	data, err := s.store.Read(cachePath(id))
	if err != nil {
		return nil, err
	}
	var n models.CachedNote
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("docservice: decode cache %s: %w", id, err)
	}
	return &n, nil
}

func (s *Service) writeCache(n *models.CachedNote) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("docservice: encode cache %s: %w", n.ID, err)
	}
	return s.store.Write(cachePath(n.ID), data)
}

// build turns a cached note into a Document. Catalogue entries override the
// note's own title, description and tags.
func (s *Service) build(n *models.CachedNote, opts GetOptions) (*Document, error) {
	start := s.now()
	content := markdown.Transcode(n.Content)
	toc := markdown.Headings(content)
	if s.uniqueIDs {
		toc = markdown.UniqueIDs(toc)
	}
	s.recorder.ObserveTranscode(s.now().Sub(start))

	summary := markdown.Summarize(n.Content)
	modified := n.ModifiedAt
	if modified.IsZero() {
		modified = n.FetchedAt
	}

	doc := &Document{
		ID:                n.ID,
		Type:              "hackmd",
		Title:             firstNonEmpty(n.Title, summary.Title),
		Description:       firstNonEmpty(n.Description, summary.Description),
		Tags:              n.Tags,
		PublishType:       firstNonEmpty(n.PublishType, "note"),
		URL:               s.noteURL(n.ID),
		Content:           content,
		TOC:               toc,
		ReadingTime:       markdown.ReadingTime(content),
		Checksum:          checksum.Sum([]byte(content)),
		LastModified:      modified,
		LastModifiedHuman: humanize.RelTime(modified, s.now(), "ago", "from now"),
		FetchedAt:         n.FetchedAt,
	}

	if entry, ok := s.catalogue.Find(n.ID); ok {
		doc.Title = firstNonEmpty(entry.Title, doc.Title)
		doc.Description = firstNonEmpty(entry.Description, doc.Description)
		doc.Category = entry.Category
		doc.Featured = entry.Featured
		if len(entry.Tags) > 0 {
			doc.Tags = entry.Tags
		}
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.TOC == nil {
		doc.TOC = []markdown.Heading{}
	}

	if opts.HTML && s.renderer != nil {
		html, err := s.renderer.Render(content)
		if err != nil {
			return nil, fmt.Errorf("docservice: render %s: %w", n.ID, err)
		}
		doc.HTML = html
	}
	return doc, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
