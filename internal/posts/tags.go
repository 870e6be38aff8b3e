package posts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Tag is a row of the tags table.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is a row of the categories table.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EnsureTags returns the tags with the given names, creating missing ones.
// Blank and repeated names are skipped.
func (db *DB) EnsureTags(ctx context.Context, names []string) ([]Tag, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("posts: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := []Tag{}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (id, name) VALUES (?, ?)`, uuid.NewString(), name); err != nil {
			return nil, fmt.Errorf("posts: ensure tag %q: %w", name, err)
		}
		var t Tag
		if err := tx.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE name = ?`, name).Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("posts: load tag %q: %w", name, err)
		}
		out = append(out, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("posts: commit tags: %w", err)
	}
	return out, nil
}

// AddPostTags links tags to a post. Existing links are left alone.
func (db *DB) AddPostTags(ctx context.Context, postID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("posts: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("posts: prepare post tag insert: %w", err)
	}
	defer stmt.Close()
	for _, tagID := range tagIDs {
		if _, err := stmt.ExecContext(ctx, postID, tagID); err != nil {
			return fmt.Errorf("posts: add tag %s to %s: %w", tagID, postID, err)
		}
	}
	return tx.Commit()
}

// GetPostTags returns the tags linked to a post, by name.
func (db *DB) GetPostTags(ctx context.Context, postID string) ([]Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name
		FROM tags t
		JOIN post_tags pt ON t.id = pt.tag_id
		WHERE pt.post_id = ?
		ORDER BY t.name`, postID)
	if err != nil {
		return nil, fmt.Errorf("posts: post tags: %w", err)
	}
	defer rows.Close()
	out := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category.
func (db *DB) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	c := &Category{ID: uuid.NewString(), Name: name, Description: description}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO categories (id, name, description) VALUES (?, ?, ?)`,
		c.ID, c.Name, nullString(description))
	if err != nil {
		return nil, fmt.Errorf("posts: create category: %w", err)
	}
	return c, nil
}

// ListCategories returns every category by name.
func (db *DB) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, COALESCE(description, '') FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("posts: list categories: %w", err)
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
