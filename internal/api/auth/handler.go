// Package auth serves registration, login and logout for designers and
// clients.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	authn "github.com/good-yellow-bee/atelier/internal/auth"
	"github.com/good-yellow-bee/atelier/internal/metrics"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/session"
)

// Handler handles authentication endpoints.
type Handler struct {
	authn    *authn.Authenticator
	sessions *session.Manager
	lockout  *authn.LockoutTracker
	logger   *zap.SugaredLogger
}

// NewHandler creates a new auth handler.
func NewHandler(a *authn.Authenticator, sessions *session.Manager, lockout *authn.LockoutTracker, logger *zap.SugaredLogger) *Handler {
	return &Handler{authn: a, sessions: sessions, lockout: lockout, logger: logger}
}

// RegisterRequest is the request body for designer registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DesignerLoginRequest is the request body for designer login.
type DesignerLoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// ClientLoginRequest is the request body for client login.
type ClientLoginRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
	RememberMe bool   `json:"remember_me"`
}

// MeResponse describes the logged-in user.
type MeResponse struct {
	UserID int64       `json:"user_id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// RegisterDesigner creates a designer account.
func (h *Handler) RegisterDesigner(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	id, err := h.authn.RegisterDesigner(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respond.Err(w, h.logger, "register designer", err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues(string(models.RoleDesigner)).Inc()
	h.logger.Infow("designer registered", "user_id", id)
	respond.Created(w, map[string]any{
		"id":      id,
		"message": "Registration successful! Please login.",
	})
}

// LoginDesigner handles designer login.
func (h *Handler) LoginDesigner(w http.ResponseWriter, r *http.Request) {
	var req DesignerLoginRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.JSONError(w, respond.NewBadRequest("Please fill in all fields"))
		return
	}

	h.login(w, r, models.RoleDesigner, req.Email, req.RememberMe, authn.DesignerLoginFailed,
		func() (*models.User, error) {
			return h.authn.LoginDesigner(r.Context(), req.Email, req.Password)
		})
}

// LoginClient handles client login with an access code.
func (h *Handler) LoginClient(w http.ResponseWriter, r *http.Request) {
	var req ClientLoginRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.AccessCode) == "" {
		respond.JSONError(w, respond.NewBadRequest("Please fill in all fields"))
		return
	}

	h.login(w, r, models.RoleClient, req.Email, req.RememberMe, authn.ClientLoginFailed,
		func() (*models.User, error) {
			return h.authn.LoginClient(r.Context(), req.Email, req.AccessCode)
		})
}

// login runs the shared lockout, session and remember-me steps around check.
func (h *Handler) login(w http.ResponseWriter, r *http.Request, role models.Role, email string, remember bool, failMsg string, check func() (*models.User, error)) {
	key := models.NormalizeEmail(email)
	outcome := metrics.LoginsTotal.MustCurryWith(map[string]string{"role": string(role)})

	if h.lockout.IsLocked(key) {
		h.logger.Infow("login blocked", "role", role, "remaining", h.lockout.RemainingLockoutTime(key))
		outcome.WithLabelValues("locked").Inc()
		respond.JSONError(w, respond.ErrAccountLocked)
		return
	}

	user, err := check()
	if errors.Is(err, authn.ErrInvalidCredentials) {
		h.lockout.RecordFailure(key)
		outcome.WithLabelValues("invalid").Inc()
		respond.JSONError(w, respond.NewUnauthorized(failMsg))
		return
	}
	if err != nil {
		outcome.WithLabelValues("error").Inc()
		respond.Err(w, h.logger, "login", err)
		return
	}

	h.lockout.ClearFailures(key)

	jar := middleware.GetJar(r.Context())
	state := session.FromContext(r.Context())
	if err := h.sessions.CreateSession(jar, state, user); err != nil {
		outcome.WithLabelValues("error").Inc()
		respond.Err(w, h.logger, "create session", err)
		return
	}
	if remember {
		if err := h.sessions.PersistToCookie(jar, user); err != nil {
			// The login itself succeeded.
			h.logger.Warnw("remember-me cookie not set", "user_id", user.ID, "error", err)
		}
	} else {
		// A cookie left by an earlier user would restore them once the
		// server session is gone.
		h.sessions.ForgetCookie(jar)
	}

	outcome.WithLabelValues("success").Inc()
	h.logger.Infow("login success", "user_id", user.ID, "role", role)
	respond.OK(w, meFrom(user))
}

// Logout ends the session and clears both cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	state := session.FromContext(r.Context())
	userID := state.CurrentUserID()
	h.sessions.Logout(middleware.GetJar(r.Context()), state)
	if userID != 0 {
		h.logger.Infow("logout", "user_id", userID)
	}
	respond.NoContent(w)
}

// Me returns the logged-in user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := session.FromContext(r.Context()).Identity()
	if !ok {
		respond.JSONError(w, respond.ErrUnauthenticated)
		return
	}
	respond.OK(w, MeResponse{UserID: id.UserID, Name: id.Name, Email: id.Email, Role: id.Role})
}

// CSRFToken returns a token for the X-CSRF-Token header.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, map[string]string{"token": middleware.CSRFToken(r)})
}

func meFrom(u *models.User) MeResponse {
	return MeResponse{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
