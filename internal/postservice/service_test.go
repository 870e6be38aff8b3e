package postservice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/koukeneko/blogd/internal/apperr"
	"github.com/koukeneko/blogd/internal/models"
	"github.com/koukeneko/blogd/internal/posts"
	"github.com/koukeneko/blogd/internal/testutil"
)

type event struct{ kind, id string }

func newTestService(t *testing.T) (*Service, *posts.DB, *[]event) {
	t.Helper()
	db := testutil.TestDB(t)
	var events []event
	svc := New(db, WithPublisher(func(kind, id string) {
		events = append(events, event{kind, id})
	}))
	return svc, db, &events
}

func TestEnsureAuthor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := models.Author{ID: "author-1", Name: "Neko", Email: "neko@example.com"}

	u, err := svc.EnsureAuthor(ctx, a)
	if err != nil {
		t.Fatalf("EnsureAuthor: %v", err)
	}
	if u.ID != "author-1" || !u.IsAdmin() {
		t.Errorf("user = %+v", u)
	}
	if u.LastLogin == nil {
		t.Error("expected last login to be set")
	}

	again, err := svc.EnsureAuthor(ctx, a)
	if err != nil {
		t.Fatalf("EnsureAuthor again: %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("second call created a new user: %q", again.ID)
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()
	author, _ := svc.EnsureAuthor(ctx, models.Author{Email: "w@example.com"})

	d, err := svc.Create(ctx, author, PostInput{
		Title:   "Hello",
		Content: "# Hello\n\n:::tip\nUse it.\n:::\n\n## More\n",
		Status:  posts.StatusPublic,
		Tags:    []string{"go", "blog"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "blog" {
		t.Errorf("tags = %v", d.Tags)
	}
	if len(d.TOC) != 2 || d.TOC[1].ID != "more" {
		t.Errorf("toc = %+v", d.TOC)
	}
	if want := "> [!TIP] 小技巧\n>\n> Use it.\n"; !strings.Contains(d.Transcoded, want) {
		t.Errorf("transcoded = %q", d.Transcoded)
	}
	if len(*events) != 1 || (*events)[0].kind != EventCreated {
		t.Errorf("events = %+v", *events)
	}

	got, err := svc.Get(ctx, d.ID, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Views != 1 {
		t.Errorf("views = %d", got.Views)
	}
	if got.ReadingTime != 1 {
		t.Errorf("reading time = %d", got.ReadingTime)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()
	author, _ := svc.EnsureAuthor(ctx, models.Author{Email: "w@example.com"})

	for name, in := range map[string]PostInput{
		"no title":   {Content: "x"},
		"no content": {Title: "x"},
		"bad status": {Title: "x", Content: "x", Status: "secret"},
	} {
		if _, err := svc.Create(ctx, author, in); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
	if len(*events) != 0 {
		t.Errorf("events = %+v", *events)
	}
}

func TestDraftsAreHiddenFromOthers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	author, _ := svc.EnsureAuthor(ctx, models.Author{Email: "w@example.com"})
	d, _ := svc.Create(ctx, author, PostInput{Title: "Draft", Content: "x"})

	if _, err := svc.Get(ctx, d.ID, "someone-else"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stranger: err = %v", err)
	}
	if _, err := svc.Get(ctx, d.ID, author.ID); err != nil {
		t.Errorf("author: err = %v", err)
	}
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	svc, db, events := newTestService(t)
	ctx := context.Background()
	owner, _ := svc.EnsureAuthor(ctx, models.Author{Email: "owner@example.com"})
	owner, _ = db.UpdateUserRole(ctx, owner.ID, posts.RoleAuthor)
	other, err := db.CreateUser(ctx, posts.NewUser{Email: "other@example.com", Role: posts.RoleAuthor})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	admin, _ := db.CreateUser(ctx, posts.NewUser{Email: "admin@example.com", Role: posts.RoleAdmin})

	d, _ := svc.Create(ctx, owner, PostInput{Title: "Mine", Content: "x"})
	title := "Edited"
	patch := PatchInput{PostPatch: posts.PostPatch{Title: &title}, Tags: []string{"edit"}}

	if _, err := svc.Update(ctx, other, d.ID, patch); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("other update: err = %v", err)
	}
	got, err := svc.Update(ctx, owner, d.ID, patch)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if got.Title != "Edited" || len(got.Tags) != 1 {
		t.Errorf("updated = %+v", got)
	}

	empty := ""
	if _, err := svc.Update(ctx, owner, d.ID, PatchInput{PostPatch: posts.PostPatch{Title: &empty}}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("blank title: err = %v", err)
	}

	if err := svc.Delete(ctx, other, d.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("other delete: err = %v", err)
	}
	if err := svc.Delete(ctx, admin, d.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := svc.Delete(ctx, owner, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete twice: err = %v", err)
	}

	var kinds []string
	for _, e := range *events {
		kinds = append(kinds, e.kind)
	}
	want := []string{EventCreated, EventUpdated, EventDeleted}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestListPaging(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	author, _ := svc.EnsureAuthor(ctx, models.Author{Email: "w@example.com"})
	for _, st := range []posts.Status{posts.StatusPublic, posts.StatusPublic, posts.StatusDraft} {
		if _, err := svc.Create(ctx, author, PostInput{Title: "t", Content: "x", Status: st}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := svc.ListPublic(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(page.Posts) != 1 || page.Pagination.TotalPages != 2 || !page.Pagination.HasNextPage {
		t.Errorf("page = %+v", page.Pagination)
	}

	mine, err := svc.ListMine(ctx, author.ID, "", 1, 10)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if mine.Pagination.Total != 3 {
		t.Errorf("mine total = %d", mine.Pagination.Total)
	}

	for _, c := range []struct{ page, limit int }{{0, 10}, {1, 0}, {1, MaxPageSize + 1}, {-1, 5}} {
		if _, err := svc.ListPublic(ctx, c.page, c.limit); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("page=%d limit=%d: err = %v", c.page, c.limit, err)
		}
	}
	if _, err := svc.ListMine(ctx, author.ID, "archived", 1, 10); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad status: err = %v", err)
	}
}
