package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type fakeUsers map[int64]*models.User

func (f fakeUsers) LookupUser(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type failingUsers struct{}

func (failingUsers) LookupUser(context.Context, int64) (*models.User, error) {
	return nil, errors.New("database is down")
}

var testSecret = []byte("test-secret-32-bytes-long-value!")

func newTestManager(users UserLookup) *Manager {
	return NewManager(NewStore(time.Hour), NewTokenSigner(testSecret), users, 30, nil)
}

func designer() *models.User {
	return &models.User{ID: 7, Name: "Dana", Email: "a@x.com", Role: models.RoleDesigner, PasswordHash: "h"}
}

func TestState_ZeroValue(t *testing.T) {
	var s State
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, models.Role(""), s.CurrentRole())
	assert.Zero(t, s.CurrentUserID())

	s.Create(designer())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, models.RoleDesigner, s.CurrentRole())
	assert.Equal(t, int64(7), s.CurrentUserID())

	s.Clear()
	assert.False(t, s.IsAuthenticated())
}

func TestFromContext_NeverNil(t *testing.T) {
	s := FromContext(context.Background())
	require.NotNil(t, s)
	assert.False(t, s.IsAuthenticated())

	want := &State{}
	assert.Same(t, want, FromContext(NewContext(context.Background(), want)))
}

func TestManager_CookieRoundTrip(t *testing.T) {
	u := designer()
	m := newTestManager(fakeUsers{u.ID: u})
	jar := NewMemoryJar()

	require.NoError(t, m.PersistToCookie(jar, u))
	token := jar.Values[RememberCookie]
	require.NotEmpty(t, token)
	assert.False(t, strings.Contains(token, "a@x.com"), "token must not be the bare triple")

	expiry := jar.Expires[RememberCookie]
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expiry, time.Minute)

	// A fresh request with only the remember-me cookie.
	fresh := NewMemoryJar()
	fresh.Values[RememberCookie] = token

	state := &State{}
	require.True(t, m.RestoreFromCookie(context.Background(), fresh, state))
	assert.Equal(t, models.RoleDesigner, state.CurrentRole())
	assert.Equal(t, u.ID, state.CurrentUserID())
	assert.NotEmpty(t, fresh.Values[SessionCookie], "restore issues a server session")
}

func TestManager_RestoreFailsAfterEmailChange(t *testing.T) {
	u := designer()
	users := fakeUsers{u.ID: u}
	m := newTestManager(users)
	jar := NewMemoryJar()
	require.NoError(t, m.PersistToCookie(jar, u))

	users[u.ID] = &models.User{ID: u.ID, Name: u.Name, Email: "b@x.com", Role: u.Role, PasswordHash: "h"}

	state := &State{}
	assert.False(t, m.RestoreFromCookie(context.Background(), jar, state))
	assert.False(t, state.IsAuthenticated())
	assert.NotContains(t, jar.Values, RememberCookie, "stale cookie is deleted")
}

func TestManager_RestoreFailsOnRoleChange(t *testing.T) {
	u := designer()
	users := fakeUsers{u.ID: u}
	m := newTestManager(users)
	jar := NewMemoryJar()
	require.NoError(t, m.PersistToCookie(jar, u))

	users[u.ID] = &models.User{ID: u.ID, Email: u.Email, Role: models.RoleClient, ClientCode: "ABC123"}

	assert.False(t, m.RestoreFromCookie(context.Background(), jar, &State{}))
}

func TestManager_RestoreRejectsBadTokens(t *testing.T) {
	u := designer()
	m := newTestManager(fakeUsers{u.ID: u})
	ctx := context.Background()

	forged, err := NewTokenSigner([]byte("another-secret-entirely-32-bytes")).
		Sign(Subject{UserID: u.ID, Role: u.Role, Email: u.Email}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	expired, err := m.signer.Sign(Subject{UserID: u.ID, Role: u.Role, Email: u.Email}, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	tests := map[string]string{
		"legacy unsigned triple": "7:designer:a@x.com",
		"garbage":                "not-a-token",
		"wrong key":              forged,
		"expired":                expired,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			jar := NewMemoryJar()
			jar.Values[RememberCookie] = raw
			state := &State{}
			assert.False(t, m.RestoreFromCookie(ctx, jar, state))
			assert.False(t, state.IsAuthenticated())
			assert.NotContains(t, jar.Values, RememberCookie, "rejected cookie is deleted")
		})
	}
}

func TestManager_RestoreSwallowsLookupErrors(t *testing.T) {
	u := designer()
	m := newTestManager(failingUsers{})
	jar := NewMemoryJar()
	require.NoError(t, m.PersistToCookie(jar, u))

	assert.False(t, m.RestoreFromCookie(context.Background(), jar, &State{}))
	assert.Contains(t, jar.Values, RememberCookie, "lookup errors keep the cookie")
}

func TestManager_RestoreWithoutCookie(t *testing.T) {
	m := newTestManager(fakeUsers{})
	assert.False(t, m.RestoreFromCookie(context.Background(), NewMemoryJar(), &State{}))
}

func TestManager_CreateSessionRotatesID(t *testing.T) {
	u := designer()
	m := newTestManager(fakeUsers{u.ID: u})
	jar := NewMemoryJar()
	state := &State{}

	require.NoError(t, m.CreateSession(jar, state, u))
	first := jar.Values[SessionCookie]

	require.NoError(t, m.CreateSession(jar, state, u))
	second := jar.Values[SessionCookie]

	assert.NotEqual(t, first, second)
	_, ok := m.Store().Get(first)
	assert.False(t, ok, "old session is dropped")
	_, ok = m.Store().Get(second)
	assert.True(t, ok)
}

func TestManager_LoadPrefersServerSession(t *testing.T) {
	u := designer()
	m := newTestManager(fakeUsers{})
	jar := NewMemoryJar()
	require.NoError(t, m.CreateSession(jar, &State{}, u))

	state := m.Load(context.Background(), jar)
	assert.True(t, state.IsAuthenticated())
	assert.Equal(t, u.ID, state.CurrentUserID())
}

func TestManager_LoadFallsBackToRememberCookie(t *testing.T) {
	u := designer()
	m := newTestManager(fakeUsers{u.ID: u})
	jar := NewMemoryJar()
	require.NoError(t, m.PersistToCookie(jar, u))
	jar.Values[SessionCookie] = "stale-session-id"

	state := m.Load(context.Background(), jar)
	assert.True(t, state.IsAuthenticated())
	assert.NotEqual(t, "stale-session-id", jar.Values[SessionCookie])
}

func TestManager_ForgetCookie(t *testing.T) {
	carl := &models.User{ID: 2, Name: "Carl", Email: "carl@x.com", Role: models.RoleClient, ClientCode: "ABC123"}
	dana := designer()
	m := newTestManager(fakeUsers{carl.ID: carl, dana.ID: dana})
	jar := NewMemoryJar()

	require.NoError(t, m.CreateSession(jar, &State{}, carl))
	require.NoError(t, m.PersistToCookie(jar, carl))

	// Dana signs in on the same browser without remember-me.
	require.NoError(t, m.CreateSession(jar, &State{}, dana))
	m.ForgetCookie(jar)
	assert.NotContains(t, jar.Values, RememberCookie)

	delete(jar.Values, SessionCookie)
	state := m.Load(context.Background(), jar)
	assert.False(t, state.IsAuthenticated(), "Carl must not come back")

	// No cookie is a no-op.
	m.ForgetCookie(NewMemoryJar())
}

func TestManager_Logout(t *testing.T) {
	u := designer()
	m := newTestManager(fakeUsers{u.ID: u})
	jar := NewMemoryJar()
	state := &State{}
	require.NoError(t, m.CreateSession(jar, state, u))
	require.NoError(t, m.PersistToCookie(jar, u))
	sid := state.SessionID()

	m.Logout(jar, state)

	assert.False(t, state.IsAuthenticated())
	assert.Empty(t, jar.Values)
	_, ok := m.Store().Get(sid)
	assert.False(t, ok)

	// Logging out twice is harmless.
	m.Logout(jar, state)
}

func TestHTTPCookieJar(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "keep", Value: "1"})
	req.AddCookie(&http.Cookie{Name: "drop", Value: "2"})
	rec := httptest.NewRecorder()

	jar := NewHTTPCookieJar(rec, req, true)
	require.NoError(t, jar.Set("new", "3", time.Now().Add(time.Hour)))
	require.NoError(t, jar.Delete("drop"))

	all := jar.GetAll()
	assert.Equal(t, map[string]string{"keep": "1", "new": "3"}, all)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "new", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, "drop", cookies[1].Name)
	assert.Less(t, cookies[1].MaxAge, 0)
}

func TestParseSubject(t *testing.T) {
	sub, err := ParseSubject("12:client:odd:name@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(12), sub.UserID)
	assert.Equal(t, models.RoleClient, sub.Role)
	assert.Equal(t, "odd:name@x.com", sub.Email)

	for _, bad := range []string{"", "12", "12:client", "x:client:a@x.com", "12:admin:a@x.com", "12:client:"} {
		_, err := ParseSubject(bad)
		assert.ErrorIs(t, err, ErrMalformedSubject, bad)
	}
}

func TestTokenSigner_RejectsNoneAlg(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "7:designer:a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenSigner(testSecret).Verify(raw)
	assert.Error(t, err)
}
