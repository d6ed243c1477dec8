package middleware

import (
	"context"
	"net/http"

	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/session"
)

// Context keys for request-scoped values.
type contextKey string

const (
	jarKey     contextKey = "cookie_jar"
	projectKey contextKey = "project"
)

// LoadSession resolves the request's session state from its cookies and
// stores both the state and the cookie jar in the request context.
func LoadSession(manager *session.Manager, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jar := session.NewHTTPCookieJar(w, r, secureCookies || IsRequestSecure(r))
			state := manager.Load(r.Context(), jar)

			ctx := session.NewContext(r.Context(), state)
			ctx = context.WithValue(ctx, jarKey, jar)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetJar returns the cookie jar stored by LoadSession. Outside of it the
// returned jar discards writes.
func GetJar(ctx context.Context) session.CookieJar {
	if jar, ok := ctx.Value(jarKey).(session.CookieJar); ok {
		return jar
	}
	return session.NewMemoryJar()
}

// RequireAuth rejects requests without a logged-in user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).IsAuthenticated() {
			respond.JSONError(w, respond.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
