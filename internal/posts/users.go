package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koukeneko/blogd/internal/apperr"
)

// Role is a user's dashboard permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleReader Role = "reader"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuthor, RoleReader:
		return true
	}
	return false
}

// externalPassword marks accounts that sign in through an external provider.
const externalPassword = "oauth_user"

// User is a row of users joined with its profile. The password column is
// never loaded.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Name      string     `json:"name,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// NewUser holds the fields of a user to create. Empty ID gets a fresh uuid and
// empty Role means reader.
type NewUser struct {
	ID    string
	Name  string
	Email string
	Image string
	Role  Role
}

const userSelect = `
	SELECT u.id, u.username, u.email, COALESCE(u.role, ''), u.created_at, u.last_login,
		COALESCE(up.name, ''), COALESCE(up.avatar_url, '')
	FROM users u
	LEFT JOIN user_profiles up ON up.user_id = u.id`

func (db *DB) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var (
		u         User
		role      string
		lastLogin sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx, userSelect+" WHERE "+where, arg).Scan(
		&u.ID, &u.Username, &u.Email, &role, &u.CreatedAt, &lastLogin, &u.Name, &u.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// GetUserByID returns the user with the given id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := db.getUser(ctx, "u.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("posts: get user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail returns the user with the given email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := db.getUser(ctx, "u.email = ?", email)
	if err != nil {
		return nil, fmt.Errorf("posts: get user by email: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user and its profile. The username is derived from the
// email's local part plus a random suffix.
func (db *DB) CreateUser(ctx context.Context, nu NewUser) (*User, error) {
	if nu.ID == "" {
		nu.ID = uuid.NewString()
	}
	if nu.Role == "" {
		nu.Role = RoleReader
	}
	if !nu.Role.Valid() {
		return nil, fmt.Errorf("posts: create user: role %q: %w", nu.Role, apperr.ErrInvalidInput)
	}
	local, _, _ := strings.Cut(nu.Email, "@")
	username := fmt.Sprintf("%s_%d", local, rand.IntN(1000))
	now := db.now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("posts: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password, role, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nu.ID, username, nu.Email, externalPassword, string(nu.Role), now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("posts: create user %s: %w", nu.Email, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("posts: create user: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, name, avatar_url, updated_at)
		VALUES (?, ?, ?, ?)`,
		nu.ID, nullString(nu.Name), nullString(nu.Image), now)
	if err != nil {
		return nil, fmt.Errorf("posts: create profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("posts: commit user: %w", err)
	}
	return db.GetUserByID(ctx, nu.ID)
}

// UpdateLastLogin stamps the user's last sign-in time.
func (db *DB) UpdateLastLogin(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, db.now(), id); err != nil {
		return fmt.Errorf("posts: update last login %s: %w", id, err)
	}
	return nil
}

// UpdateUserRole changes a user's role.
func (db *DB) UpdateUserRole(ctx context.Context, id string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("posts: update role: %q: %w", role, apperr.ErrInvalidInput)
	}
	res, err := db.conn.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return nil, fmt.Errorf("posts: update role %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("posts: update role %s: %w", id, apperr.ErrNotFound)
	}
	return db.GetUserByID(ctx, id)
}
