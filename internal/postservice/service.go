// Package postservice coordinates the posts store: input validation, paging,
// ownership checks and the markdown enrichment of post details.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/koukeneko/blogd/internal/apperr"
	"github.com/koukeneko/blogd/internal/checksum"
	"github.com/koukeneko/blogd/internal/markdown"
	"github.com/koukeneko/blogd/internal/models"
	"github.com/koukeneko/blogd/internal/posts"
	"github.com/koukeneko/blogd/internal/transcode"
)

// MaxPageSize caps the limit of a listing.
const MaxPageSize = 50

// Change event kinds passed to the publisher.
const (
	EventCreated = "post.created"
	EventUpdated = "post.updated"
	EventDeleted = "post.deleted"
)

// Publisher receives post change events.
type Publisher func(kind, postID string)

// PostDetail is a post with its tags and rendered outline.
type PostDetail struct {
	posts.Post
	Tags        []string           `json:"tags"`
	Transcoded  string             `json:"transcoded_content"`
	TOC         []markdown.Heading `json:"toc"`
	ReadingTime int                `json:"reading_time"`
	Checksum    string             `json:"checksum"`
}

// Page is one page of posts.
type Page struct {
	Posts      []posts.Post      `json:"posts"`
	Pagination models.Pagination `json:"pagination"`
}

// PostInput is the body of a create request.
type PostInput struct {
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Summary    string       `json:"summary"`
	CategoryID string       `json:"category_id"`
	CoverImage string       `json:"cover_image"`
	Status     posts.Status `json:"status"`
	Tags       []string     `json:"tags"`
}

// Validate checks the required fields and the status.
func (in PostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Status, validation.By(validStatus)),
	)
}

// PatchInput is the body of an update request. Nil Tags keeps the stored tags.
type PatchInput struct {
	posts.PostPatch
	Tags []string `json:"tags"`
}

// Validate rejects blank titles and unknown statuses.
func (in PatchInput) Validate() error {
	return validation.ValidateStruct(&in.PostPatch,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&in.Content, validation.NilOrNotEmpty),
		validation.Field(&in.Status, validation.By(validStatus)),
	)
}

func validStatus(v any) error {
	var s posts.Status
	switch x := v.(type) {
	case posts.Status:
		s = x
	case *posts.Status:
		if x == nil {
			return nil
		}
		s = *x
	}
	if s == "" || s.Valid() {
		return nil
	}
	return fmt.Errorf("unknown status %q", s)
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher installs the change event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publish = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithUniqueIDs suffixes duplicate heading ids in post outlines.
func WithUniqueIDs(on bool) Option {
	return func(s *Service) { s.uniqueIDs = on }
}

// Service implements the posts use cases on top of a repository.
type Service struct {
	repo      posts.Repository
	publish   Publisher
	logger    *slog.Logger
	uniqueIDs bool
}

// New creates a post service.
func New(repo posts.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		publish: func(string, string) {},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func checkPage(page, limit int) error {
	err := validation.Errors{
		"page":  validation.Validate(page, validation.Required, validation.Min(1)),
		"limit": validation.Validate(limit, validation.Required, validation.Min(1), validation.Max(MaxPageSize)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("postservice: %w: %w", apperr.ErrInvalidInput, err)
	}
	return nil
}

// ListPublic returns a page of public posts, newest first.
func (s *Service) ListPublic(ctx context.Context, page, limit int) (*Page, error) {
	if err := checkPage(page, limit); err != nil {
		return nil, err
	}
	total, err := s.repo.CountPosts(ctx, posts.StatusPublic)
	if err != nil {
		return nil, err
	}
	p := models.NewPagination(page, limit, total)
	items, err := s.repo.ListPosts(ctx, posts.StatusPublic, limit, p.Offset())
	if err != nil {
		return nil, err
	}
	return &Page{Posts: items, Pagination: p}, nil
}

// ListMine returns a page of the user's posts. An empty status matches all.
func (s *Service) ListMine(ctx context.Context, userID string, status posts.Status, page, limit int) (*Page, error) {
	if err := checkPage(page, limit); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("postservice: status %q: %w", status, apperr.ErrInvalidInput)
	}
	total, err := s.repo.CountUserPosts(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	p := models.NewPagination(page, limit, total)
	items, err := s.repo.ListUserPosts(ctx, userID, status, limit, p.Offset())
	if err != nil {
		return nil, err
	}
	return &Page{Posts: items, Pagination: p}, nil
}

// Get returns a post with its tags and outline and counts the view. Posts
// that are not public are only visible to their author.
func (s *Service) Get(ctx context.Context, id, viewerID string) (*PostDetail, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != posts.StatusPublic && p.UserID != viewerID {
		return nil, fmt.Errorf("postservice: get %s: %w", id, apperr.ErrNotFound)
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("postservice: increment views failed", slog.String("id", id), slog.String("error", err.Error()))
	} else {
		p.Views++
	}
	return s.detail(ctx, p)
}

// Create stores a new post owned by author.
func (s *Service) Create(ctx context.Context, author *posts.User, in PostInput) (*PostDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("postservice: %w: %w", apperr.ErrInvalidInput, err)
	}
	p, err := s.repo.CreatePost(ctx, posts.NewPost{
		UserID:     author.ID,
		Title:      in.Title,
		Content:    in.Content,
		Summary:    in.Summary,
		CategoryID: in.CategoryID,
		CoverImage: in.CoverImage,
		Status:     in.Status,
	})
	if err != nil {
		return nil, err
	}
	if err := s.tag(ctx, p.ID, in.Tags); err != nil {
		return nil, err
	}
	s.publish(EventCreated, p.ID)
	return s.detail(ctx, p)
}

// Update applies a partial update. Only the author or an admin may edit.
func (s *Service) Update(ctx context.Context, user *posts.User, id string, in PatchInput) (*PostDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("postservice: %w: %w", apperr.ErrInvalidInput, err)
	}
	if err := s.authorize(ctx, user, id); err != nil {
		return nil, err
	}
	p, err := s.repo.UpdatePost(ctx, id, in.PostPatch)
	if err != nil {
		return nil, err
	}
	if err := s.tag(ctx, id, in.Tags); err != nil {
		return nil, err
	}
	s.publish(EventUpdated, id)
	return s.detail(ctx, p)
}

// Delete removes a post. Only the author or an admin may delete.
func (s *Service) Delete(ctx context.Context, user *posts.User, id string) error {
	if err := s.authorize(ctx, user, id); err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return err
	}
	s.publish(EventDeleted, id)
	return nil
}

// EnsureAuthor returns the user for the configured author, creating it as an
// admin on first use, and stamps the login time.
func (s *Service) EnsureAuthor(ctx context.Context, a models.Author) (*posts.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, a.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		u, err = s.repo.CreateUser(ctx, posts.NewUser{
			ID:    a.ID,
			Name:  a.Name,
			Email: a.Email,
			Role:  posts.RoleAdmin,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("postservice: ensure author %s: %w", a.Email, err)
	}
	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		s.logger.Warn("postservice: last login update failed", slog.String("id", u.ID), slog.String("error", err.Error()))
	}
	return u, nil
}

func (s *Service) authorize(ctx context.Context, user *posts.User, id string) error {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != user.ID && !user.IsAdmin() {
		return fmt.Errorf("postservice: post %s: %w", id, apperr.ErrForbidden)
	}
	return nil
}

func (s *Service) tag(ctx context.Context, postID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tags, err := s.repo.EnsureTags(ctx, names)
	if err != nil {
		return err
	}
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return s.repo.AddPostTags(ctx, postID, ids)
}

func (s *Service) detail(ctx context.Context, p *posts.Post) (*PostDetail, error) {
	tags, err := s.repo.GetPostTags(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}

	res, err := transcode.Run(p.Content, transcode.Options{UniqueIDs: s.uniqueIDs})
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Post:        *p,
		Tags:        names,
		Transcoded:  res.Content,
		TOC:         res.TOC,
		ReadingTime: res.ReadingTime,
		Checksum:    checksum.Sum([]byte(res.Content)),
	}, nil
}
