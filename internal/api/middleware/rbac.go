package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/access"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/metrics"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/session"
)

// Gate enforces dashboard roles and project ownership.
type Gate struct {
	access   *access.Controller
	sessions *session.Manager
	logger   *zap.SugaredLogger
}

// NewGate creates a Gate.
func NewGate(ctrl *access.Controller, sessions *session.Manager, logger *zap.SugaredLogger) *Gate {
	return &Gate{access: ctrl, sessions: sessions, logger: logger}
}

// RequireRole returns middleware that admits only the given role. A user
// with another role is logged out before the 403 is written.
func (g *Gate) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := session.FromContext(r.Context())
			if err := g.access.RequireRole(state, role); err != nil {
				g.deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireDesigner is shorthand for RequireRole(RoleDesigner).
func (g *Gate) RequireDesigner(next http.Handler) http.Handler {
	return g.RequireRole(models.RoleDesigner)(next)
}

// RequireClient is shorthand for RequireRole(RoleClient).
func (g *Gate) RequireClient(next http.Handler) http.Handler {
	return g.RequireRole(models.RoleClient)(next)
}

// deny writes the error for a failed access check. Role mismatches end the
// session.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, access.ErrUnauthorizedRole) {
		state := session.FromContext(r.Context())
		g.logger.Infow("role mismatch, logging out",
			"user_id", state.CurrentUserID(),
			"role", state.CurrentRole(),
			"path", r.URL.Path,
		)
		g.sessions.Logout(GetJar(r.Context()), state)
		metrics.ForcedLogoutsTotal.Inc()
	}
	respond.Err(w, g.logger, "access check", err)
}
