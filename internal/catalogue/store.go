package catalogue

import (
	"slices"
	"strings"
	"sync/atomic"
)

// Store serves the current catalogue and allows it to be swapped while
// readers are active.
type Store struct {
	cur atomic.Pointer[Catalogue]
}

// NewStore returns a Store holding c. A nil c is treated as empty.
func NewStore(c *Catalogue) *Store {
	s := &Store{}
	s.Replace(c)
	return s
}

// Replace swaps in c.
func (s *Store) Replace(c *Catalogue) {
	if c == nil {
		c = &Catalogue{Settings: DefaultSettings()}
	}
	s.cur.Store(c)
}

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	return s.cur.Load().Settings
}

// All returns every document in file order.
func (s *Store) All() []Document {
	return slices.Clone(s.cur.Load().Documents)
}

// Find returns the document with the given id.
func (s *Store) Find(id string) (Document, bool) {
	for _, d := range s.cur.Load().Documents {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// Featured returns the documents marked featured.
func (s *Store) Featured() []Document {
	return s.filter(func(d Document) bool { return d.Featured })
}

// ByTag returns the documents carrying tag.
func (s *Store) ByTag(tag string) []Document {
	return s.filter(func(d Document) bool { return slices.Contains(d.Tags, tag) })
}

// Search matches q case-insensitively against title, description and tags.
// An empty query matches everything.
func (s *Store) Search(q string) []Document {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return s.All()
	}
	return s.filter(func(d Document) bool { return d.Matches(q) })
}

// Matches reports whether the lowercased query q occurs in d's title,
// description or tags.
func (d Document) Matches(q string) bool {
	if strings.Contains(strings.ToLower(d.Title), q) ||
		strings.Contains(strings.ToLower(d.Description), q) {
		return true
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (s *Store) filter(keep func(Document) bool) []Document {
	var out []Document
	for _, d := range s.cur.Load().Documents {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
