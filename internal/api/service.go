package api

import (
	"context"

	"github.com/koukeneko/blogd/internal/docservice"
	"github.com/koukeneko/blogd/internal/hackmd"
	"github.com/koukeneko/blogd/internal/posts"
	"github.com/koukeneko/blogd/internal/postservice"
	"github.com/koukeneko/blogd/internal/rss"
)

// DocumentService serves blog documents from the catalogue and cache.
type DocumentService interface {
	Get(ctx context.Context, id string, opts docservice.GetOptions) (*docservice.Document, error)
	List(q docservice.ListQuery) docservice.ListResult
}

// PostService implements the dashboard post use cases.
type PostService interface {
	ListPublic(ctx context.Context, page, limit int) (*postservice.Page, error)
	ListMine(ctx context.Context, userID string, status posts.Status, page, limit int) (*postservice.Page, error)
	Get(ctx context.Context, id, viewerID string) (*postservice.PostDetail, error)
	Create(ctx context.Context, author *posts.User, in postservice.PostInput) (*postservice.PostDetail, error)
	Update(ctx context.Context, user *posts.User, id string, in postservice.PatchInput) (*postservice.PostDetail, error)
	Delete(ctx context.Context, user *posts.User, id string) error
}

// NoteLister lists HackMD notes.
type NoteLister interface {
	ListNotes(ctx context.Context, username string) (*hackmd.NoteList, error)
}

// FeedFetcher loads RSS feeds.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*rss.Feed, error)
}

// SchemaManager initializes the posts database.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) (posts.SchemaReport, error)
}

var (
	_ DocumentService = (*docservice.Service)(nil)
	_ PostService     = (*postservice.Service)(nil)
	_ NoteLister      = (*hackmd.Client)(nil)
	_ FeedFetcher     = (*rss.Client)(nil)
	_ SchemaManager   = (*posts.DB)(nil)
)
