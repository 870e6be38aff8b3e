package docservice

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/koukeneko/blogd/internal/catalogue"
	"github.com/koukeneko/blogd/internal/models"
)

// MaxPageSize caps ListQuery.Limit.
const MaxPageSize = 50

// ListQuery filters and pages the catalogue.
type ListQuery struct {
	Q        string
	Tag      string
	Featured bool
	Sort     string
	Page     int
	Limit    int
}

// ListItem is a catalogue entry with what the cache knows about it.
type ListItem struct {
	catalogue.Document
	LastModified *time.Time `json:"lastModified,omitempty"`
	Cached       bool       `json:"cached"`
}

// ListResult is one page of documents.
type ListResult struct {
	Documents  []ListItem         `json:"documents"`
	Pagination models.Pagination  `json:"pagination"`
	Settings   catalogue.Settings `json:"settings"`
	Tags       []string           `json:"tags"`
}

// List pages the catalogue. Search and tag filters only apply when the
// catalogue settings enable them. Sorting defaults to the catalogue's
// default_sort; "date" puts the most recently modified cached documents first.
func (s *Service) List(q ListQuery) ListResult {
	settings := s.catalogue.Settings()

	docs := s.catalogue.All()
	if settings.EnableSearch && strings.TrimSpace(q.Q) != "" {
		docs = intersect(docs, s.catalogue.Search(q.Q))
	}
	if settings.EnableTagFilter && q.Tag != "" {
		docs = intersect(docs, s.catalogue.ByTag(q.Tag))
	}
	if q.Featured {
		docs = intersect(docs, s.catalogue.Featured())
	}

	items := make([]ListItem, len(docs))
	for i, d := range docs {
		items[i] = ListItem{Document: d}
		if n, err := s.readCache(d.ID); err == nil {
			mod := n.ModifiedAt
			if mod.IsZero() {
				mod = n.FetchedAt
			}
			items[i].LastModified = &mod
			items[i].Cached = true
		}
	}

	sortBy := q.Sort
	if sortBy == "" {
		sortBy = settings.DefaultSort
	}
	switch sortBy {
	case catalogue.SortTitle:
		slices.SortStableFunc(items, func(a, b ListItem) int { return cmp.Compare(a.Title, b.Title) })
	case catalogue.SortDate:
		slices.SortStableFunc(items, func(a, b ListItem) int {
			switch {
			case a.LastModified == nil && b.LastModified == nil:
				return 0
			case a.LastModified == nil:
				return 1
			case b.LastModified == nil:
				return -1
			}
			return b.LastModified.Compare(*a.LastModified)
		})
	}

	page := max(q.Page, 1)
	limit := q.Limit
	if limit <= 0 {
		limit = settings.ItemsPerPage
	}
	limit = min(max(limit, 1), MaxPageSize)

	p := models.NewPagination(page, limit, len(items))
	start := min(p.Offset(), len(items))
	end := min(start+limit, len(items))

	return ListResult{
		Documents:  items[start:end],
		Pagination: p,
		Settings:   settings,
		Tags:       allTags(s.catalogue.All()),
	}
}

// intersect keeps the documents of docs whose id also appears in keep.
func intersect(docs, keep []catalogue.Document) []catalogue.Document {
	return slices.DeleteFunc(docs, func(d catalogue.Document) bool {
		return !slices.ContainsFunc(keep, func(k catalogue.Document) bool { return k.ID == d.ID })
	})
}

func allTags(docs []catalogue.Document) []string {
	var tags []string
	for _, d := range docs {
		for _, t := range d.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	if tags == nil {
		tags = []string{}
	}
	return tags
}
