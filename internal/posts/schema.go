// Package posts provides the SQLite-backed store for the blog dashboard:
// users, categories, posts, tags and comments.
package posts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Tables lists every table the schema creates, in creation order.
var Tables = []string{"users", "user_profiles", "categories", "posts", "tags", "post_tags", "comments"}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id         VARCHAR(36) PRIMARY KEY,
	username   VARCHAR(255) UNIQUE NOT NULL,
	password   VARCHAR(255) NOT NULL,
	email      VARCHAR(255) UNIQUE NOT NULL,
	role       VARCHAR(10) CHECK (role IN ('admin', 'author', 'reader')),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	last_login TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id    VARCHAR(36) PRIMARY KEY,
	name       VARCHAR(255),
	avatar_url TEXT,
	bio        TEXT,
	website    VARCHAR(255),
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS categories (
	id          VARCHAR(36) PRIMARY KEY,
	name        VARCHAR(255) NOT NULL,
	description TEXT
);

CREATE TABLE IF NOT EXISTS posts (
	id          VARCHAR(36) PRIMARY KEY,
	user_id     VARCHAR(36) NOT NULL,
	title       VARCHAR(255) NOT NULL,
	content     TEXT NOT NULL,
	summary     TEXT,
	category_id VARCHAR(36),
	cover_image VARCHAR(255),
	status      VARCHAR(10) CHECK (status IN ('public', 'draft', 'pending')),
	views       INTEGER DEFAULT 0,
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts(status, created_at);
CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id);

CREATE TABLE IF NOT EXISTS tags (
	id   VARCHAR(36) PRIMARY KEY,
	name VARCHAR(255) UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS post_tags (
	post_id VARCHAR(36) NOT NULL,
	tag_id  VARCHAR(36) NOT NULL,
	PRIMARY KEY (post_id, tag_id),
	FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS comments (
	id         VARCHAR(36) PRIMARY KEY,
	post_id    VARCHAR(36) NOT NULL,
	user_id    VARCHAR(36) NOT NULL,
	content    TEXT NOT NULL,
	parent_id  VARCHAR(36),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY (parent_id) REFERENCES comments(id) ON DELETE CASCADE
);
`

// DB wraps a sql.DB with dashboard operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database. The schema is not applied;
// call EnsureSchema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("posts: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("posts: ping: %w", err)
	}
	return &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// CheckTables reports, per table, whether it exists.
func (db *DB) CheckTables(ctx context.Context) (map[string]bool, error) {
	out := make(map[string]bool, len(Tables))
	for _, name := range Tables {
		var n int
		err := db.conn.QueryRowContext(ctx,
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("posts: check table %s: %w", name, err)
		}
		out[name] = n > 0
	}
	return out, nil
}

// Initialize creates any missing tables and indexes.
func (db *DB) Initialize(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("posts: apply schema: %w", err)
	}
	return nil
}

// SchemaReport is the outcome of EnsureSchema.
type SchemaReport struct {
	Initialized bool            `json:"initialized"`
	Before      map[string]bool `json:"initialStatus"`
	After       map[string]bool `json:"currentStatus"`
}

// EnsureSchema initializes the database when any table is missing.
func (db *DB) EnsureSchema(ctx context.Context) (SchemaReport, error) {
	before, err := db.CheckTables(ctx)
	if err != nil {
		return SchemaReport{}, err
	}
	report := SchemaReport{Before: before, After: before}
	for _, ok := range before {
		if ok {
			continue
		}
		if err := db.Initialize(ctx); err != nil {
			return report, err
		}
		report.Initialized = true
		if report.After, err = db.CheckTables(ctx); err != nil {
			return report, err
		}
		break
	}
	return report, nil
}
