// Package session tracks who is logged in for the duration of a request and
// persists that identity across requests and restarts.
package session

import (
	"context"

	"github.com/good-yellow-bee/atelier/internal/models"
)

// Identity is the user binding carried by a session.
type Identity struct {
	UserID     int64       `json:"user_id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	ClientCode string      `json:"-"`
}

// IdentityOf builds an Identity from a stored user.
func IdentityOf(u *models.User) Identity {
	return Identity{
		UserID:     u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		ClientCode: u.ClientCode,
	}
}

// State is the request-scoped session. The zero value is logged out.
type State struct {
	identity  *Identity
	sessionID string
}

// Create binds the state to user, replacing any previous identity.
func (s *State) Create(user *models.User) {
	id := IdentityOf(user)
	s.identity = &id
}

// Clear logs the state out.
func (s *State) Clear() {
	s.identity = nil
	s.sessionID = ""
}

// IsAuthenticated reports whether an identity is bound.
func (s *State) IsAuthenticated() bool {
	return s != nil && s.identity != nil
}

// CurrentRole returns the bound role, or "" when logged out.
func (s *State) CurrentRole() models.Role {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.identity.Role
}

// CurrentUserID returns the bound user id, or 0 when logged out.
func (s *State) CurrentUserID() int64 {
	if !s.IsAuthenticated() {
		return 0
	}
	return s.identity.UserID
}

// Identity returns a copy of the bound identity.
func (s *State) Identity() (Identity, bool) {
	if !s.IsAuthenticated() {
		return Identity{}, false
	}
	return *s.identity, true
}

// SessionID returns the server-side session id backing this state.
func (s *State) SessionID() string {
	if s == nil {
		return ""
	}
	return s.sessionID
}

type contextKey struct{}

// NewContext returns ctx carrying state.
func NewContext(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, contextKey{}, state)
}

// FromContext returns the state stored in ctx. It never returns nil.
func FromContext(ctx context.Context) *State {
	if s, ok := ctx.Value(contextKey{}).(*State); ok && s != nil {
		return s
	}
	return &State{}
}
