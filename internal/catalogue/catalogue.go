// Package catalogue holds the curated list of HackMD documents the blog
// publishes, with the listing settings that go with it.
package catalogue

import (
	"fmt"
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Sort orders for document listings.
const (
	SortDate  = "date"
	SortTitle = "title"
)

// DefaultCategory is used for suggestions that have not been filed yet.
const DefaultCategory = "未分類"

var noteIDRe = regexp.MustCompile(`^@?[\w-]+(/[\w-]+)?$`)

// Document is one published note and its display overrides.
type Document struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Category    string   `yaml:"category" json:"category"`
	Tags        []string `yaml:"tags" json:"tags"`
	Featured    bool     `yaml:"featured" json:"featured"`
}

// Validate checks the document fields.
func (d Document) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required, validation.Match(noteIDRe)),
		validation.Field(&d.Title, validation.Required),
	)
}

// Settings tune how the document list is presented and cached.
type Settings struct {
	ItemsPerPage    int    `yaml:"items_per_page" json:"itemsPerPage"`
	EnableSearch    bool   `yaml:"enable_search" json:"enableSearch"`
	EnableTagFilter bool   `yaml:"enable_tag_filter" json:"enableTagFilter"`
	ShowFeatured    bool   `yaml:"show_featured" json:"showFeatured"`
	DefaultSort     string `yaml:"default_sort" json:"defaultSort"`
	CacheTime       int    `yaml:"cache_time" json:"cacheTime"` // minutes
}

// Validate checks the settings.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ItemsPerPage, validation.Min(1)),
		validation.Field(&s.DefaultSort, validation.In(SortDate, SortTitle)),
		validation.Field(&s.CacheTime, validation.Min(0)),
	)
}

// DefaultSettings mirrors the blog's built-in listing behaviour.
func DefaultSettings() Settings {
	return Settings{
		ItemsPerPage:    10,
		EnableSearch:    true,
		EnableTagFilter: true,
		ShowFeatured:    true,
		DefaultSort:     SortDate,
		CacheTime:       10,
	}
}

// Catalogue is the parsed catalogue file.
type Catalogue struct {
	Documents []Document `yaml:"documents" json:"documents"`
	Settings  Settings   `yaml:"settings" json:"settings"`
}

// Validate checks every document and rejects duplicate ids.
func (c Catalogue) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Documents),
		validation.Field(&c.Settings),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Documents))
	for _, d := range c.Documents {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("documents: duplicate id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// Parse decodes and validates catalogue YAML. Missing settings take their
// defaults.
func Parse(data []byte) (*Catalogue, error) {
	c := &Catalogue{Settings: DefaultSettings()}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("catalogue: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalogue: validate: %w", err)
	}
	return c, nil
}

// Load reads and parses the catalogue file at path.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalogue: read %s: %w", path, err)
	}
	return Parse(data)
}

// ValidID reports whether id looks like a HackMD note id ("abc", "@user/abc").
func ValidID(id string) bool {
	return noteIDRe.MatchString(id)
}
