package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/koukeneko/blogd/internal/checksum"
	"github.com/koukeneko/blogd/internal/docservice"
	"github.com/koukeneko/blogd/internal/render"
	"github.com/koukeneko/blogd/internal/transcode"
)

// Handler holds API route handlers.
type Handler struct {
	docs      DocumentService
	posts     PostService
	notes     NoteLister
	feeds     FeedFetcher
	schema    SchemaManager
	renderer  *render.Renderer
	uniqueIDs bool
}

// documentID extracts the HackMD id from the URL (everything after
// /api/documents/). Ids may contain one slash ("@user/id").
func documentID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func wantHTML(r *http.Request) bool {
	v := r.URL.Query().Get("html")
	return v == "1" || v == "true"
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List catalogue documents
//	@Tags			documents
//	@Produce		json
//	@Param			q			query		string	false	"Search title, description and tags"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			featured	query		bool	false	"Only featured documents"
//	@Param			sort		query		string	false	"Sort field"	Enums(date, title)
//	@Param			page		query		int		false	"Page number"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	DocumentListResponse
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.docs.List(docservice.ListQuery{
		Q:        q.Get("q"),
		Tag:      q.Get("tag"),
		Featured: q.Get("featured") == "true" || q.Get("featured") == "1",
		Sort:     q.Get("sort"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 0),
	})
	writeJSON(w, http.StatusOK, res)
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a transcoded document by HackMD id
//	@Tags			documents
//	@Produce		json
//	@Param			id				path		string	true	"HackMD note id"
//	@Param			html			query		bool	false	"Also render HTML"
//	@Param			If-None-Match	header		string	false	"ETag from a previous response"
//	@Success		200				{object}	Document
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Failure		502				{object}	errResponse
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	html := wantHTML(r)
	doc, err := h.docs.Get(r.Context(), id, docservice.GetOptions{
		HTML:  html,
		Force: r.URL.Query().Get("refresh") == "1",
	})
	if err != nil {
		writeError(w, "get document", err)
		return
	}

	variant := ""
	if html {
		variant = "html"
	}
	etag := checksum.ETag(doc.Checksum, variant)
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", doc.LastModified.UTC().Format(http.TimeFormat))
	if checksum.Match(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Transcode handles POST /api/transcode.
//
//	@Summary		Rewrite call-outs into canonical form
//	@Tags			transcode
//	@Accept			json
//	@Produce		json
//	@Param			html	query		bool				false	"Also render HTML"
//	@Param			body	body		TranscodeRequest	true	"Markdown source"
//	@Success		200		{object}	TranscodeResponse
//	@Failure		400		{object}	errResponse
//	@Router			/transcode [post]
func (h *Handler) Transcode(w http.ResponseWriter, r *http.Request) {
	var req TranscodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts := transcode.Options{UniqueIDs: h.uniqueIDs}
	if wantHTML(r) {
		opts.Renderer = h.renderer
	}
	res, err := transcode.Run(req.Content, opts)
	if err != nil {
		writeError(w, "transcode", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListHackMDNotes handles GET /api/hackmd/notes.
//
//	@Summary		List HackMD notes with catalogue suggestions
//	@Tags			hackmd
//	@Produce		json
//	@Param			username	query		string	false	"Label for the listing"
//	@Success		200			{object}	hackmd.NoteList
//	@Failure		503			{object}	errResponse
//	@Router			/hackmd/notes [get]
func (h *Handler) ListHackMDNotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.notes.ListNotes(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, "list hackmd notes", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// RSS handles GET /api/rss.
//
//	@Summary		Fetch an RSS feed through the proxy
//	@Tags			rss
//	@Produce		json
//	@Param			url	query		string	true	"Feed URL"
//	@Success		200	{object}	rss.Feed
//	@Failure		400	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Router			/rss [get]
func (h *Handler) RSS(w http.ResponseWriter, r *http.Request) {
	feed, err := h.feeds.Fetch(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, "rss", err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int((10*time.Minute).Seconds())))
	writeJSON(w, http.StatusOK, feed)
}
