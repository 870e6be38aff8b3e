package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koukeneko/blogd/internal/render"
	"github.com/koukeneko/blogd/internal/storage"
)

// Deps are the services the API routes call.
type Deps struct {
	Documents DocumentService
	Posts     PostService
	Notes     NoteLister
	Feeds     FeedFetcher
	Schema    SchemaManager
	Renderer  *render.Renderer
	// Covers stores uploaded post cover images. Upload is disabled when nil.
	Covers storage.Provider
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events    http.Handler
	UniqueIDs bool
}

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; writes, the user's own listings and the event stream need a valid
// token.
func NewRouter(d Deps, auth Auth) chi.Router {
	h := &Handler{
		docs:      d.Documents,
		posts:     d.Posts,
		notes:     d.Notes,
		feeds:     d.Feeds,
		schema:    d.Schema,
		renderer:  d.Renderer,
		uniqueIDs: d.UniqueIDs,
	}
	if h.renderer == nil {
		h.renderer = render.New(render.WithUniqueIDs(d.UniqueIDs))
	}

	r := chi.NewRouter()

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(auth.Optional)

		r.Get("/documents", h.ListDocuments)
		r.Get("/documents/*", h.GetDocument)
		r.Post("/transcode", h.Transcode)
		r.Get("/hackmd/notes", h.ListHackMDNotes)
		r.Get("/rss", h.RSS)
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{id}", h.GetPost)
	})

	// Token-protected routes.
	r.Group(func(r chi.Router) {
		r.Use(auth.Require)

		r.Get("/auth/user", h.CurrentUser)
		r.Get("/posts/my", h.ListMyPosts)
		r.Post("/posts", h.CreatePost)
		r.Put("/posts/{id}", h.UpdatePost)
		r.Delete("/posts/{id}", h.DeletePost)
		r.Post("/admin/init", h.InitDatabase)

		if d.Covers != nil {
			r.Post("/covers", NewCoverHandler(d.Covers).Upload)
		}

		// SSE endpoint (protected by same auth middleware).
		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	return r
}
