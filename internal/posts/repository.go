package posts

import "context"

// Repository defines the dashboard storage operations. Consumers should
// depend on this interface rather than the concrete *DB type.
type Repository interface {
	Ping(ctx context.Context) error
	CheckTables(ctx context.Context) (map[string]bool, error)
	EnsureSchema(ctx context.Context) (SchemaReport, error)

	ListPosts(ctx context.Context, status Status, limit, offset int) ([]Post, error)
	CountPosts(ctx context.Context, status Status) (int, error)
	ListUserPosts(ctx context.Context, userID string, status Status, limit, offset int) ([]Post, error)
	CountUserPosts(ctx context.Context, userID string, status Status) (int, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	CreatePost(ctx context.Context, np NewPost) (*Post, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) (*Post, error)
	DeletePost(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error

	EnsureTags(ctx context.Context, names []string) ([]Tag, error)
	AddPostTags(ctx context.Context, postID string, tagIDs []string) error
	GetPostTags(ctx context.Context, postID string) ([]Tag, error)

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, nu NewUser) (*User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
