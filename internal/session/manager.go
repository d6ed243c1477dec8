package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/metrics"
	"github.com/good-yellow-bee/atelier/internal/models"
)

// Cookie names.
const (
	SessionCookie  = "session_id"
	RememberCookie = "atelier_remember"
)

// DefaultRememberDays is how long a remember-me cookie stays valid.
const DefaultRememberDays = 30

// UserLookup re-reads users when restoring a session.
type UserLookup interface {
	LookupUser(ctx context.Context, id int64) (*models.User, error)
}

// Manager ties request states to the server-side store and the
// remember-me cookie.
type Manager struct {
	store        *Store
	signer       *TokenSigner
	users        UserLookup
	rememberDays int
	logger       *zap.SugaredLogger
	now          func() time.Time
}

// NewManager creates a Manager. rememberDays <= 0 selects DefaultRememberDays.
func NewManager(store *Store, signer *TokenSigner, users UserLookup, rememberDays int, logger *zap.SugaredLogger) *Manager {
	if rememberDays <= 0 {
		rememberDays = DefaultRememberDays
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		store:        store,
		signer:       signer,
		users:        users,
		rememberDays: rememberDays,
		logger:       logger,
		now:          time.Now,
	}
}

// Store returns the server-side session store.
func (m *Manager) Store() *Store {
	return m.store
}

// Load resolves the request's state: the live server session if the
// session_id cookie names one, otherwise a restore from the remember-me
// cookie, otherwise a logged-out state.
func (m *Manager) Load(ctx context.Context, jar CookieJar) *State {
	state := &State{}
	cookies := jar.GetAll()

	if id := cookies[SessionCookie]; id != "" {
		if sess, ok := m.store.Get(id); ok {
			identity := sess.Identity
			state.identity = &identity
			state.sessionID = sess.ID
			return state
		}
		_ = jar.Delete(SessionCookie)
	}

	m.RestoreFromCookie(ctx, jar, state)
	return state
}

// CreateSession binds state to user and issues a fresh server session,
// dropping any previous one so a pre-login id cannot be reused.
func (m *Manager) CreateSession(jar CookieJar, state *State, user *models.User) error {
	if old := state.sessionID; old != "" {
		m.store.Delete(old)
	}
	if old := jar.GetAll()[SessionCookie]; old != "" {
		m.store.Delete(old)
	}

	state.Create(user)
	sess, err := m.store.Create(IdentityOf(user))
	if err != nil {
		state.Clear()
		return fmt.Errorf("create session: %w", err)
	}
	state.sessionID = sess.ID

	if err := jar.Set(SessionCookie, sess.ID, time.Time{}); err != nil {
		return fmt.Errorf("set session cookie: %w", err)
	}
	return nil
}

// PersistToCookie writes a signed remember-me token for user.
func (m *Manager) PersistToCookie(jar CookieJar, user *models.User) error {
	expiresAt := m.now().Add(time.Duration(m.rememberDays) * 24 * time.Hour)
	token, err := m.signer.Sign(Subject{UserID: user.ID, Role: user.Role, Email: user.Email}, expiresAt)
	if err != nil {
		return fmt.Errorf("sign remember-me token: %w", err)
	}
	if err := jar.Set(RememberCookie, token, expiresAt); err != nil {
		return fmt.Errorf("set remember-me cookie: %w", err)
	}
	return nil
}

// ForgetCookie deletes the remember-me cookie if the client sent one.
// Cookie errors are ignored.
func (m *Manager) ForgetCookie(jar CookieJar) {
	if jar.GetAll()[RememberCookie] != "" {
		_ = jar.Delete(RememberCookie)
	}
}

// RestoreFromCookie rebuilds state from the remember-me cookie. The token
// must verify and its id, role and email must all still match a stored
// user. Every failure returns false without surfacing an error; a rejected
// or stale cookie is deleted so later requests skip it. Lookup errors keep
// the cookie, since the user may still be valid.
func (m *Manager) RestoreFromCookie(ctx context.Context, jar CookieJar, state *State) bool {
	raw := jar.GetAll()[RememberCookie]
	if raw == "" {
		return false
	}

	sub, err := m.signer.Verify(raw)
	if err != nil {
		m.logger.Debugw("remember-me token rejected", "error", err)
		metrics.SessionRestoresTotal.WithLabelValues("invalid_token").Inc()
		m.ForgetCookie(jar)
		return false
	}

	user, err := m.users.LookupUser(ctx, sub.UserID)
	if err != nil {
		m.logger.Debugw("remember-me lookup failed", "user_id", sub.UserID, "error", err)
		metrics.SessionRestoresTotal.WithLabelValues("error").Inc()
		return false
	}
	if user == nil || user.Role != sub.Role || user.Email != models.NormalizeEmail(sub.Email) {
		m.logger.Debugw("remember-me identity no longer matches", "user_id", sub.UserID)
		metrics.SessionRestoresTotal.WithLabelValues("stale").Inc()
		m.ForgetCookie(jar)
		return false
	}

	if err := m.CreateSession(jar, state, user); err != nil {
		m.logger.Debugw("remember-me session create failed", "user_id", sub.UserID, "error", err)
		metrics.SessionRestoresTotal.WithLabelValues("error").Inc()
		return false
	}
	metrics.SessionRestoresTotal.WithLabelValues("restored").Inc()
	return true
}

// Logout clears state, drops the server session and deletes both cookies.
// Cookie errors are ignored.
func (m *Manager) Logout(jar CookieJar, state *State) {
	if id := state.SessionID(); id != "" {
		m.store.Delete(id)
	}
	if id := jar.GetAll()[SessionCookie]; id != "" {
		m.store.Delete(id)
	}
	state.Clear()
	_ = jar.Delete(SessionCookie)
	_ = jar.Delete(RememberCookie)
}
