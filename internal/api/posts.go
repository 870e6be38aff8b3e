package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koukeneko/blogd/internal/posts"
)

const defaultPostLimit = 10

// currentUser returns the user attached by the auth middleware, writing a 401
// when there is none.
func currentUser(w http.ResponseWriter, r *http.Request) (*posts.User, bool) {
	u, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	}
	return u, ok
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List public posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			page	query		int	false	"Page number"
//	@Param			limit	query		int	false	"Page size (1-50)"
//	@Success		200		{object}	PostListResponse
//	@Failure		400		{object}	errResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.ListPublic(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", defaultPostLimit))
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListMyPosts handles GET /api/posts/my.
//
//	@Summary		List the signed-in user's posts
//	@Tags			posts
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(public, draft, pending)
//	@Param			page	query		int		false	"Page number"
//	@Param			limit	query		int		false	"Page size (1-50)"
//	@Success		200		{object}	PostListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/my [get]
func (h *Handler) ListMyPosts(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	status := posts.Status(r.URL.Query().Get("status"))
	page, err := h.posts.ListMine(r.Context(), u.ID, status, queryInt(r, "page", 1), queryInt(r, "limit", defaultPostLimit))
	if err != nil {
		writeError(w, "list my posts", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetPost handles GET /api/posts/{id}.
//
//	@Summary		Get a post and count the view
//	@Tags			posts
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	PostDetail
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	var viewer string
	if u, ok := UserFrom(r.Context()); ok {
		viewer = u.ID
	}
	p, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"), viewer)
	if err != nil {
		writeError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePost handles POST /api/posts.
//
//	@Summary		Create a post
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePostRequest	true	"Post to create"
//	@Success		201		{object}	PostDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts [post]
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.posts.Create(r.Context(), u, req)
	if err != nil {
		writeError(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePost handles PUT /api/posts/{id}.
//
//	@Summary		Update a post
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Post id"
//	@Param			body	body		UpdatePostRequest	true	"Fields to change"
//	@Success		200		{object}	PostDetail
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{id} [put]
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.posts.Update(r.Context(), u, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePost handles DELETE /api/posts/{id}.
//
//	@Summary		Delete a post
//	@Tags			posts
//	@Param			id	path	string	true	"Post id"
//	@Success		204	"Post deleted"
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{id} [delete]
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.posts.Delete(r.Context(), u, chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser handles GET /api/auth/user.
//
//	@Summary		Get the signed-in user
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	UserResponse
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/auth/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: u})
}

// InitDatabase handles POST /api/admin/init.
//
//	@Summary		Create any missing dashboard tables
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	InitResponse
//	@Failure		403	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/init [post]
func (h *Handler) InitDatabase(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !u.IsAdmin() {
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
		return
	}
	report, err := h.schema.EnsureSchema(r.Context())
	if err != nil {
		writeError(w, "init database", err)
		return
	}
	writeJSON(w, http.StatusOK, InitResponse{Success: true, SchemaReport: report})
}
