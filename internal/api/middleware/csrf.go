package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/api/respond"
)

// CSRFHeader carries the token on unsafe requests.
const CSRFHeader = "X-CSRF-Token"

// CSRF protects cookie-authenticated, state-changing requests. Clients
// fetch a token from the csrf endpoint and echo it in CSRFHeader.
func CSRF(key []byte, secure bool, trustedOrigins []string, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Infow("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			respond.JSONError(w, &respond.Error{
				Code:    respond.ErrCodeForbidden,
				Message: "Invalid CSRF token",
				Status:  http.StatusForbidden,
			})
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsRequestSecure(r) {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// CSRFToken returns the token for the current request, or "" when CSRF
// protection is off.
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}
