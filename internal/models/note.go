// Package models defines the types shared by the cache, services and
// transports of blogd.
package models

import "time"

// FileMeta describes one file in the document cache.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachedNote is a fetched note as persisted in the document cache.
type CachedNote struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PublishType string    `json:"publish_type,omitempty"`
	Content     string    `json:"content"`
	FromAPI     bool      `json:"from_api"`
	ModifiedAt  time.Time `json:"modified_at,omitzero"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Author identifies the signed-in writer for the posts dashboard.
type Author struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewPagination computes page bounds for total items. page and limit must be
// positive.
func NewPagination(page, limit, total int) Pagination {
	pages := (total + limit - 1) / limit
	return Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

// Offset is the index of the first item on the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
