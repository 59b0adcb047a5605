package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
)

type contextKey string

const userContextKey contextKey = "auth-user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

// Auth validates bearer tokens on every route except the configured skip
// paths and stores the resolved user in the request context.
type Auth struct {
	authenticator Authenticator
	skip          map[string]bool
}

// NewAuth creates the auth middleware. skipPaths are matched exactly.
func NewAuth(authenticator Authenticator, skipPaths []string) *Auth {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &Auth{authenticator: authenticator, skip: skip}
}

// Handler returns the auth middleware handler.
func (m *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		u, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithUser stores the authenticated user in a context.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFrom returns the authenticated user stored in the context.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userContextKey).(user.User)
	return u, ok
}

// UserID returns the authenticated user's ID, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	u, ok := UserFrom(ctx)
	if !ok {
		return ""
	}
	return u.ID
}

// RequireRole wraps a handler and rejects users without the given role.
func RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok || u.Role != role {
			writeError(w, http.StatusForbidden, "insufficient privileges")
			return
		}
		next(w, r)
	}
}
