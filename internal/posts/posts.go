package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/koukeneko/blogd/internal/apperr"
)

// Status is the publication state of a post.
type Status string

const (
	StatusPublic  Status = "public"
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPublic, StatusDraft, StatusPending:
		return true
	}
	return false
}

// Post is a row of the posts table joined with author and category names.
type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary"`
	CategoryID   string    `json:"category_id,omitempty"`
	CoverImage   string    `json:"cover_image,omitempty"`
	Status       Status    `json:"status"`
	Views        int       `json:"views"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AuthorName   string    `json:"author_name"`
	CategoryName string    `json:"category_name,omitempty"`
}

// NewPost holds the fields of a post to create. Empty Status means draft.
type NewPost struct {
	UserID     string
	Title      string
	Content    string
	Summary    string
	CategoryID string
	CoverImage string
	Status     Status
}

// PostPatch is a partial update; nil fields keep their stored value.
type PostPatch struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Summary    *string `json:"summary"`
	CategoryID *string `json:"category_id"`
	CoverImage *string `json:"cover_image"`
	Status     *Status `json:"status"`
}

const postColumns = `
	p.id, p.user_id, p.title, p.content, p.summary,
	p.category_id, p.cover_image, p.status, p.views,
	p.created_at, p.updated_at,
	u.username, c.name`

const postFrom = `
	FROM posts p
	LEFT JOIN users u ON p.user_id = u.id
	LEFT JOIN categories c ON p.category_id = c.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (*Post, error) {
	var (
		p                                       Post
		summary, categoryID, cover, author, cat sql.NullString
		status                                  string
	)
	if err := r.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &summary,
		&categoryID, &cover, &status, &p.Views,
		&p.CreatedAt, &p.UpdatedAt,
		&author, &cat); err != nil {
		return nil, err
	}
	p.Summary = summary.String
	p.CategoryID = categoryID.String
	p.CoverImage = cover.String
	p.Status = Status(status)
	p.AuthorName = author.String
	p.CategoryName = cat.String
	return &p, nil
}

func (db *DB) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListPosts returns posts with the given status, newest first.
func (db *DB) ListPosts(ctx context.Context, status Status, limit, offset int) ([]Post, error) {
	out, err := db.queryPosts(ctx, `SELECT`+postColumns+postFrom+`
		WHERE p.status = ?
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("posts: list: %w", err)
	}
	return out, nil
}

// CountPosts counts posts with the given status.
func (db *DB) CountPosts(ctx context.Context, status Status) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE status = ?`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("posts: count: %w", err)
	}
	return n, nil
}

// ListUserPosts returns a user's posts, newest first. An empty status matches
// every status.
func (db *DB) ListUserPosts(ctx context.Context, userID string, status Status, limit, offset int) ([]Post, error) {
	out, err := db.queryPosts(ctx, `SELECT`+postColumns+postFrom+`
		WHERE p.user_id = ? AND (? = '' OR p.status = ?)
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?`, userID, string(status), string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("posts: list user posts: %w", err)
	}
	return out, nil
}

// CountUserPosts counts a user's posts. An empty status matches every status.
func (db *DB) CountUserPosts(ctx context.Context, userID string, status Status) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE user_id = ? AND (? = '' OR status = ?)`,
		userID, string(status), string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("posts: count user posts: %w", err)
	}
	return n, nil
}

// GetPost returns the post with the given id.
func (db *DB) GetPost(ctx context.Context, id string) (*Post, error) {
	p, err := scanPost(db.conn.QueryRowContext(ctx, `SELECT`+postColumns+postFrom+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("posts: get %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("posts: get %s: %w", id, err)
	}
	return p, nil
}

// CreatePost inserts a post with a fresh id and returns it.
func (db *DB) CreatePost(ctx context.Context, np NewPost) (*Post, error) {
	id := uuid.NewString()
	now := db.now()
	status := np.Status
	if status == "" {
		status = StatusDraft
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO posts (
			id, user_id, title, content, summary,
			category_id, cover_image, status, views,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, np.UserID, np.Title, np.Content, nullString(np.Summary),
		nullString(np.CategoryID), nullString(np.CoverImage), string(status), now, now)
	if err != nil {
		return nil, fmt.Errorf("posts: create: %w", err)
	}
	return db.GetPost(ctx, id)
}

// UpdatePost applies a partial update and returns the stored post.
func (db *DB) UpdatePost(ctx context.Context, id string, patch PostPatch) (*Post, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE posts
		SET
			title       = COALESCE(?, title),
			content     = COALESCE(?, content),
			summary     = COALESCE(?, summary),
			category_id = COALESCE(?, category_id),
			cover_image = COALESCE(?, cover_image),
			status      = COALESCE(?, status),
			updated_at  = ?
		WHERE id = ?`,
		patch.Title, patch.Content, patch.Summary, patch.CategoryID, patch.CoverImage, status, db.now(), id)
	if err != nil {
		return nil, fmt.Errorf("posts: update %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("posts: update %s: %w", id, apperr.ErrNotFound)
	}
	return db.GetPost(ctx, id)
}

// DeletePost removes a post and its tag links.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("posts: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("posts: delete tags of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("posts: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("posts: delete %s: %w", id, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// IncrementViews bumps the view counter of a post.
func (db *DB) IncrementViews(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("posts: increment views %s: %w", id, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
