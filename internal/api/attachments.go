package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/koukeneko/blogd/internal/apperr"
	"github.com/koukeneko/blogd/internal/storage"
)

const maxUploadBytes = 10 << 20 // 10 MB

var coverTypes = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// CoverHandler serves and accepts post cover images.
type CoverHandler struct {
	store storage.Provider
}

// NewCoverHandler creates a handler backed by store.
func NewCoverHandler(store storage.Provider) *CoverHandler {
	return &CoverHandler{store: store}
}

// safeName validates that the filename is a plain image name (no path
// separators, no traversal).
func safeName(name string) (string, error) {
	if name == "" {
		return "", errors.New("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if !coverTypes[strings.ToLower(filepath.Ext(cleaned))] {
		return "", fmt.Errorf("unsupported image type: %s", filepath.Ext(cleaned))
	}
	return cleaned, nil
}

// ServeFile handles GET /covers/{filename}.
func (h *CoverHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name, err := safeName(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	meta, err := h.store.Stat(name)
	if errors.Is(err, apperr.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data, err := h.store.Read(name)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", `"`+meta.Checksum+`"`)
	http.ServeContent(w, r, name, meta.UpdatedAt, bytes.NewReader(data))
}

// Upload handles POST /api/covers (multipart/form-data, field "file"). The
// stored name is prefixed with the upload time so covers never collide.
//
//	@Summary		Upload a post cover image
//	@Tags			posts
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	CoverUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/covers [post]
func (h *CoverHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	name = fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if err := h.store.Write(name, data); err != nil {
		writeError(w, "upload cover", err)
		return
	}

	writeJSON(w, http.StatusCreated, CoverUploadResponse{
		Filename: name,
		Size:     int64(len(data)),
		URL:      path.Join("/covers", name),
	})
}
