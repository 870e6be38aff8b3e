// Package api implements the blogd REST API using chi.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/koukeneko/blogd/internal/posts"
)

// UserResolver returns the user a valid request acts as.
type UserResolver func(ctx context.Context) (*posts.User, error)

type userKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *posts.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user attached by the auth middleware.
func UserFrom(ctx context.Context) (*posts.User, bool) {
	u, ok := ctx.Value(userKey{}).(*posts.User)
	return u, ok && u != nil
}

// Auth validates Bearer tokens and attaches the acting user.
// If Enabled is false, every request is authenticated (disabled mode).
type Auth struct {
	Enabled bool
	Token   string
	Resolve UserResolver
}

func (a Auth) valid(r *http.Request) bool {
	if !a.Enabled {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == a.Token
}

func (a Auth) attach(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if a.Resolve == nil {
		return r, true
	}
	u, err := a.Resolve(r.Context())
	if err != nil {
		slog.Error("api: resolve user failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return r, false
	}
	return r.WithContext(WithUser(r.Context(), u)), true
}

// Require rejects requests without a valid token.
func (a Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.valid(r) {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		r, ok := a.attach(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Optional attaches the user when the token is valid and lets every request
// through.
func (a Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.valid(r) {
			var ok bool
			if r, ok = a.attach(w, r); !ok {
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
