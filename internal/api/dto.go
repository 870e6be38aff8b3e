package api

import (
	"github.com/koukeneko/blogd/internal/docservice"
	"github.com/koukeneko/blogd/internal/posts"
	"github.com/koukeneko/blogd/internal/postservice"
	"github.com/koukeneko/blogd/internal/transcode"
)

// TranscodeRequest is the request body of POST /transcode.
type TranscodeRequest struct {
	Content string `json:"content" example:":::warning Heads up\nCareful.\n:::" validate:"required"`
}

// TranscodeResponse is the transcoded document with its outline.
type TranscodeResponse = transcode.Result

// Document is the document response type (aliased from the domain layer).
type Document = docservice.Document

// DocumentListResponse is one page of the catalogue.
type DocumentListResponse = docservice.ListResult

// PostDetail is the post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListResponse wraps a page of posts.
type PostListResponse = postservice.Page

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest = postservice.PostInput

// UpdatePostRequest is the request body for updating a post.
type UpdatePostRequest = postservice.PatchInput

// UserResponse is the signed-in user.
type UserResponse struct {
	User *posts.User `json:"user"`
}

// InitResponse reports the outcome of POST /admin/init.
type InitResponse struct {
	Success bool `json:"success"`
	posts.SchemaReport
}

// CoverUploadResponse is returned after a successful cover upload.
type CoverUploadResponse struct {
	Filename string `json:"filename" example:"cover.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/covers/cover.png" validate:"required"`
}
