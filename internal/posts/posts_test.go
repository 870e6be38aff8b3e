package posts

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/koukeneko/blogd/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return db
}

// tick makes db.now advance one second per call.
func tick(db *DB) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	db.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func testUser(t *testing.T, db *DB, email string) *User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), NewUser{Name: "Neko", Email: email, Role: RoleAuthor})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestEnsureSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	report, err := db.EnsureSchema(ctx)
	if err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if !report.Initialized {
		t.Error("expected first call to initialize")
	}
	for _, name := range Tables {
		if report.Before[name] {
			t.Errorf("table %s existed before init", name)
		}
		if !report.After[name] {
			t.Errorf("table %s missing after init", name)
		}
	}

	report, err = db.EnsureSchema(ctx)
	if err != nil {
		t.Fatalf("EnsureSchema again: %v", err)
	}
	if report.Initialized {
		t.Error("second call should be a no-op")
	}
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u := testUser(t, db, "neko@example.com")
	if !strings.HasPrefix(u.Username, "neko_") {
		t.Errorf("username = %q", u.Username)
	}
	if u.Name != "Neko" || u.Role != RoleAuthor {
		t.Errorf("user = %+v", u)
	}

	got, err := db.GetUserByEmail(ctx, "neko@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id = %q, want %q", got.ID, u.ID)
	}

	if _, err := db.CreateUser(ctx, NewUser{Email: "neko@example.com"}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate email: err = %v", err)
	}
	if _, err := db.GetUserByID(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing user: err = %v", err)
	}
}

func TestUpdateUserRole(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db, "a@example.com")

	got, err := db.UpdateUserRole(ctx, u.ID, RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	if !got.IsAdmin() {
		t.Errorf("role = %q", got.Role)
	}
	if _, err := db.UpdateUserRole(ctx, u.ID, "root"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad role: err = %v", err)
	}
	if _, err := db.UpdateUserRole(ctx, "nope", RoleReader); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing user: err = %v", err)
	}
}

func TestPostLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db, "w@example.com")
	cat, err := db.CreateCategory(ctx, "Go", "")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	p, err := db.CreatePost(ctx, NewPost{UserID: u.ID, Title: "First", Content: "# Hi", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if p.Status != StatusDraft {
		t.Errorf("default status = %q", p.Status)
	}
	if p.AuthorName != u.Username || p.CategoryName != "Go" {
		t.Errorf("joins: author=%q category=%q", p.AuthorName, p.CategoryName)
	}

	title := "Renamed"
	public := StatusPublic
	p, err = db.UpdatePost(ctx, p.ID, PostPatch{Title: &title, Status: &public})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if p.Title != "Renamed" || p.Status != StatusPublic || p.Content != "# Hi" {
		t.Errorf("after update: %+v", p)
	}

	if err := db.IncrementViews(ctx, p.ID); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	p, _ = db.GetPost(ctx, p.ID)
	if p.Views != 1 {
		t.Errorf("views = %d", p.Views)
	}

	tags, err := db.EnsureTags(ctx, []string{"go", " go ", "", "sql"})
	if err != nil {
		t.Fatalf("EnsureTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %+v", tags)
	}
	ids := []string{tags[0].ID, tags[1].ID}
	if err := db.AddPostTags(ctx, p.ID, ids); err != nil {
		t.Fatalf("AddPostTags: %v", err)
	}
	if err := db.AddPostTags(ctx, p.ID, ids); err != nil {
		t.Fatalf("AddPostTags again: %v", err)
	}
	linked, _ := db.GetPostTags(ctx, p.ID)
	if len(linked) != 2 || linked[0].Name != "go" {
		t.Errorf("post tags = %+v", linked)
	}

	if err := db.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := db.GetPost(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get deleted: err = %v", err)
	}
	if err := db.DeletePost(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete twice: err = %v", err)
	}
	if _, err := db.UpdatePost(ctx, p.ID, PostPatch{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update deleted: err = %v", err)
	}
}

func TestListPosts(t *testing.T) {
	db := testDB(t)
	tick(db)
	ctx := context.Background()
	alice := testUser(t, db, "alice@example.com")
	bob := testUser(t, db, "bob@example.com")

	for _, np := range []NewPost{
		{UserID: alice.ID, Title: "a1", Content: "x", Status: StatusPublic},
		{UserID: alice.ID, Title: "a2", Content: "x", Status: StatusDraft},
		{UserID: bob.ID, Title: "b1", Content: "x", Status: StatusPublic},
	} {
		if _, err := db.CreatePost(ctx, np); err != nil {
			t.Fatalf("CreatePost %s: %v", np.Title, err)
		}
	}

	public, err := db.ListPosts(ctx, StatusPublic, 10, 0)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(public) != 2 || public[0].Title != "b1" {
		t.Errorf("public = %+v", public)
	}
	if n, _ := db.CountPosts(ctx, StatusPublic); n != 2 {
		t.Errorf("CountPosts = %d", n)
	}

	page, _ := db.ListPosts(ctx, StatusPublic, 1, 1)
	if len(page) != 1 || page[0].Title != "a1" {
		t.Errorf("second page = %+v", page)
	}

	mine, _ := db.ListUserPosts(ctx, alice.ID, "", 10, 0)
	if len(mine) != 2 || mine[0].Title != "a2" {
		t.Errorf("alice posts = %+v", mine)
	}
	if n, _ := db.CountUserPosts(ctx, alice.ID, StatusDraft); n != 1 {
		t.Errorf("alice drafts = %d", n)
	}
}
