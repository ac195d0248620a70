package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/model"
)

// TokenValidator resolves a bearer token to the user who owns the session.
// service.AuthService implements it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// contextKey is unexported so no other package can read or overwrite the
// values this package stores in a request context.
type contextKey string

const (
	userKey contextKey = "user"
	slotKey contextKey = "userSlot"
)

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// with 401 and otherwise stores the session's user in the request context.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "authorization token is required")
				return
			}

			user, err := tokens.ValidateToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthenticated) {
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth identifies the viewer when a valid token is present and lets
// the request through anonymously otherwise. Read endpoints use it so
// isLiked can be computed for signed-in viewers.
func OptionalAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r.Header.Get("Authorization")); token != "" {
				if user, err := tokens.ValidateToken(r.Context(), token); err == nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole must be mounted after RequireAuth. It answers 403 when the
// authenticated user lacks role.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "authorization token is required")
				return
			}
			if user.Role != role {
				writeJSONError(w, http.StatusForbidden, "forbidden", "this action requires the "+string(role)+" role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user, and records user in the
// UserSlot planted further up the chain, if any.
func WithUser(ctx context.Context, user *model.User) context.Context {
	if slot, ok := ctx.Value(slotKey).(*UserSlot); ok {
		slot.user = user
	}
	return context.WithValue(ctx, userKey, user)
}

// UserSlot reports back to an outer middleware (the request logger) which
// user an inner auth middleware resolved.
type UserSlot struct {
	user *model.User
}

// User returns the authenticated user, or nil for anonymous requests.
func (s *UserSlot) User() *model.User {
	if s == nil {
		return nil
	}
	return s.user
}

// WithUserSlot returns a copy of ctx carrying an empty UserSlot.
func WithUserSlot(ctx context.Context) (context.Context, *UserSlot) {
	slot := &UserSlot{}
	return context.WithValue(ctx, slotKey, slot), slot
}

// UserFromContext returns the authenticated user, or (nil, false) for
// anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
