package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/atelier/internal/files"
	"github.com/good-yellow-bee/atelier/internal/logging"
	"github.com/good-yellow-bee/atelier/internal/session"
	"github.com/good-yellow-bee/atelier/internal/storage"
)

func testServer(t *testing.T, mutate func(*Config)) *httptest.Server {
	t.Helper()

	store := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "atelier.db"))
	require.NoError(t, store.Open())
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())

	fm, err := files.NewManager(t.TempDir())
	require.NoError(t, err)

	cfg := &Config{
		Address:            ":0",
		SessionSecret:      []byte("test-session-secret-32-bytes-long"),
		SessionTTL:         time.Hour,
		BcryptCost:         10,
		LockoutThreshold:   3,
		LockoutDuration:    time.Minute,
		LoginRatePerMinute: 1000,
		MaxUploadBytes:     1 << 20,
		ExposeMetrics:      true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := New(cfg, store, fm, logging.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// browser is an HTTP client with its own cookie jar.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
	header http.Header
}

func newBrowser(t *testing.T, ts *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: ts.URL, client: &http.Client{Jar: jar}, header: http.Header{}}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b *browser) do(method, path string, body any) (int, envelope) {
	b.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.base+path, rdr)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range b.header {
		req.Header[k] = v
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(b.t, err)
		if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
			require.NoError(b.t, json.Unmarshal(raw, &env), string(raw))
		}
	}
	return resp.StatusCode, env
}

func (b *browser) cookie(name string) *http.Cookie {
	u, _ := url.Parse(b.base)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func registerAndLogin(t *testing.T, ts *httptest.Server, name, email string) *browser {
	t.Helper()
	b := newBrowser(t, ts)
	status, env := b.do("POST", "/api/v1/auth/designers/register", map[string]string{
		"name": name, "email": email, "password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = b.do("POST", "/api/v1/auth/designers/login", map[string]any{
		"email": email, "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, status, env.Error)
	return b
}

type createdProject struct {
	Code    string `json:"access_code"`
	Project struct {
		ID int64 `json:"id"`
	} `json:"project"`
}

func createProject(t *testing.T, designer *browser, name, email string) createdProject {
	t.Helper()
	status, env := designer.do("POST", "/api/v1/projects", map[string]string{"name": name, "email": email})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var out createdProject
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func projectID(t *testing.T, env envelope) int64 {
	t.Helper()
	var p struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p.ID
}

func loginClient(t *testing.T, ts *httptest.Server, email, code string, remember bool) *browser {
	t.Helper()
	b := newBrowser(t, ts)
	status, env := b.do("POST", "/api/v1/auth/clients/login", map[string]any{
		"email": email, "access_code": code, "remember_me": remember,
	})
	require.Equal(t, http.StatusOK, status, env.Error)
	return b
}

func TestHealthAndMetrics(t *testing.T) {
	ts := testServer(t, nil)
	b := newBrowser(t, ts)

	status, _ := b.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = b.do("GET", "/health/ready", nil)
	assert.Equal(t, http.StatusOK, status)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "atelier_http_requests_total")
}

func TestDesignerRegistrationAndLogin(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")

	status, env := dana.do("GET", "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"role":"designer"`)

	other := newBrowser(t, ts)
	status, env = other.do("POST", "/api/v1/auth/designers/register", map[string]string{
		"name": "Dana Again", "email": "DANA@example.com", "password": "another secret",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", env.Error.Message)

	status, env = other.do("POST", "/api/v1/auth/designers/register", map[string]string{
		"name": "Short", "email": "short@example.com", "password": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestLoginErrorsAreGeneric(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	created := createProject(t, dana, "Carl", "carl@example.com")

	b := newBrowser(t, ts)
	_, wrongPassword := b.do("POST", "/api/v1/auth/designers/login", map[string]string{"email": "dana@example.com", "password": "wrong password"})
	_, unknownUser := b.do("POST", "/api/v1/auth/designers/login", map[string]string{"email": "nobody@example.com", "password": "wrong password"})
	require.NotNil(t, wrongPassword.Error)
	require.NotNil(t, unknownUser.Error)
	assert.Equal(t, "Invalid email or password", wrongPassword.Error.Message)
	assert.Equal(t, wrongPassword.Error.Message, unknownUser.Error.Message)

	// A client cannot use the designer form, and the client form rejects a bad code.
	status, env := b.do("POST", "/api/v1/auth/designers/login", map[string]string{"email": "carl@example.com", "password": created.Code})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", env.Error.Message)
	status, env = b.do("POST", "/api/v1/auth/clients/login", map[string]string{"email": "carl@example.com", "access_code": "ZZZZZZ"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or access code", env.Error.Message)

	status, env = b.do("POST", "/api/v1/auth/clients/login", map[string]string{"email": "carl@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please fill in all fields", env.Error.Message)
}

func TestClientLoginIsCaseInsensitive(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	created := createProject(t, dana, "Carl", "carl@example.com")

	carl := loginClient(t, ts, "Carl@Example.com", strings.ToLower(created.Code), false)
	status, env := carl.do("GET", "/api/v1/client/project", nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, created.Project.ID, projectID(t, env))
}

func TestClientDeniedOtherProject(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	mine := createProject(t, dana, "Carl", "carl@example.com")
	theirs := createProject(t, dana, "Olive", "olive@example.com")

	carl := loginClient(t, ts, "carl@example.com", mine.Code, false)

	// The client route only ever serves the client's own project.
	status, env := carl.do("GET", "/api/v1/client/project", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, mine.Project.ID, projectID(t, env))
	assert.NotEqual(t, theirs.Project.ID, projectID(t, env))

	// Designer routes are off limits and the attempt ends the session.
	status, _ = carl.do("GET", fmt.Sprintf("/api/v1/projects/%d", theirs.Project.ID), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Nil(t, carl.cookie(session.SessionCookie))

	status, _ = carl.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDesignerDeniedOtherDesignersProject(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	eve := registerAndLogin(t, ts, "Eve", "eve@example.com")
	created := createProject(t, dana, "Carl", "carl@example.com")

	path := fmt.Sprintf("/api/v1/projects/%d", created.Project.ID)
	status, _ := eve.do("GET", path, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = eve.do("DELETE", path, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Eve keeps her session.
	status, _ = eve.do("GET", "/api/v1/projects", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = dana.do("GET", path, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = dana.do("GET", "/api/v1/projects/999", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRememberMeRestoresSession(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	created := createProject(t, dana, "Carl", "carl@example.com")

	carl := loginClient(t, ts, "carl@example.com", created.Code, true)
	remember := carl.cookie(session.RememberCookie)
	require.NotNil(t, remember)

	// A new browser holding only the remember-me cookie.
	fresh := newBrowser(t, ts)
	u, _ := url.Parse(ts.URL)
	fresh.client.Jar.SetCookies(u, []*http.Cookie{{Name: session.RememberCookie, Value: remember.Value}})

	status, env := fresh.do("GET", "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"role":"client"`)
	assert.NotNil(t, fresh.cookie(session.SessionCookie))

	// Logout clears both cookies.
	status, _ = fresh.do("POST", "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, fresh.cookie(session.RememberCookie))
	status, _ = fresh.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

// dropSession forgets the session_id cookie, as after a server restart.
func (b *browser) dropSession() {
	u, _ := url.Parse(b.base)
	b.client.Jar.SetCookies(u, []*http.Cookie{{Name: session.SessionCookie, Value: "", Path: "/", MaxAge: -1}})
}

func TestPlainLoginDropsEarlierRememberCookie(t *testing.T) {
	ts := testServer(t, nil)
	registerAndLogin(t, ts, "Dana", "dana@example.com")
	dana := newBrowser(t, ts)
	status, env := dana.do("POST", "/api/v1/auth/designers/login", map[string]any{"email": "dana@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, status, env.Error)
	created := createProject(t, dana, "Carl", "carl@example.com")

	// Carl ticks remember-me, then Dana signs in on the same browser without it.
	shared := loginClient(t, ts, "carl@example.com", created.Code, true)
	require.NotNil(t, shared.cookie(session.RememberCookie))

	status, env = shared.do("POST", "/api/v1/auth/designers/login", map[string]any{"email": "dana@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Nil(t, shared.cookie(session.RememberCookie))

	shared.dropSession()
	require.Nil(t, shared.cookie(session.SessionCookie))

	status, env = shared.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotContains(t, string(env.Data), "Carl")
}

func TestRejectedRememberCookieIsDeleted(t *testing.T) {
	ts := testServer(t, nil)
	b := newBrowser(t, ts)
	u, _ := url.Parse(ts.URL)
	b.client.Jar.SetCookies(u, []*http.Cookie{{Name: session.RememberCookie, Value: "7:designer:a@x.com"}})

	status, _ := b.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Nil(t, b.cookie(session.RememberCookie))
}

func TestDeleteProjectLogsClientOut(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	created := createProject(t, dana, "Carl", "carl@example.com")

	carl := loginClient(t, ts, "carl@example.com", created.Code, true)
	status, _ := carl.do("GET", "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = dana.do("DELETE", fmt.Sprintf("/api/v1/projects/%d", created.Project.ID), nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = carl.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = carl.do("GET", "/api/v1/client/project", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLockout(t *testing.T) {
	ts := testServer(t, nil)
	registerAndLogin(t, ts, "Dana", "dana@example.com")

	b := newBrowser(t, ts)
	for i := 0; i < 3; i++ {
		status, _ := b.do("POST", "/api/v1/auth/designers/login", map[string]string{"email": "dana@example.com", "password": "wrong password"})
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	status, env := b.do("POST", "/api/v1/auth/designers/login", map[string]string{"email": "Dana@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "ACCOUNT_LOCKED", env.Error.Code)
}

func TestProjectWorkflow(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	created := createProject(t, dana, "Carl", "carl@example.com")
	base := fmt.Sprintf("/api/v1/projects/%d", created.Project.ID)

	status, env := dana.do("POST", base+"/timeline", map[string]string{"milestone": "Site survey", "deadline": "2026-11-02"})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = dana.do("POST", base+"/budget", map[string]any{"item_name": "Rugs", "estimated_cost": 800})
	require.Equal(t, http.StatusCreated, status, env.Error)

	carl := loginClient(t, ts, "carl@example.com", created.Code, false)
	status, env = carl.do("GET", "/api/v1/client/project/timeline", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Site survey")

	status, _ = carl.do("POST", "/api/v1/client/project/feedback", map[string]string{"item_type": "image", "comment": "Warmer tones please"})
	require.Equal(t, http.StatusCreated, status)

	status, env = dana.do("GET", base+"/feedback", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Warmer tones please")

	// Clients cannot write to designer-only records.
	status, _ = carl.do("POST", base+"/tasks", map[string]string{"title": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = dana.do("DELETE", base, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = dana.do("GET", base, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSuppliersDesignerOnly(t *testing.T) {
	ts := testServer(t, nil)
	dana := registerAndLogin(t, ts, "Dana", "dana@example.com")
	created := createProject(t, dana, "Carl", "carl@example.com")

	status, env := dana.do("POST", "/api/v1/suppliers", map[string]string{"name": "Lumen Co", "category": "Lighting"})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = dana.do("GET", "/api/v1/suppliers?q=lumen", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Lumen Co")

	carl := loginClient(t, ts, "carl@example.com", created.Code, false)
	status, _ = carl.do("GET", "/api/v1/suppliers", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCSRF(t *testing.T) {
	ts := testServer(t, func(c *Config) {
		c.CSRFEnabled = true
		c.CSRFKey = []byte("0123456789abcdef0123456789abcdef")
	})
	b := newBrowser(t, ts)
	body := map[string]string{"name": "Dana", "email": "dana@example.com", "password": "correct horse"}

	status, env := b.do("POST", "/api/v1/auth/designers/register", body)
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, env.Error)

	status, env = b.do("GET", "/api/v1/auth/csrf", nil)
	require.Equal(t, http.StatusOK, status)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	require.NotEmpty(t, tok.Token)

	b.header.Set("X-CSRF-Token", tok.Token)
	status, env = b.do("POST", "/api/v1/auth/designers/register", body)
	assert.Equal(t, http.StatusCreated, status, env.Error)
}

func TestNewValidatesConfig(t *testing.T) {
	store := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "atelier.db"))
	fm, err := files.NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = New(&Config{SessionSecret: []byte("short")}, store, fm, nil)
	assert.Error(t, err)

	_, err = New(&Config{
		SessionSecret: []byte("test-session-secret-32-bytes-long"),
		CSRFEnabled:   true,
		CSRFKey:       []byte("too short"),
	}, store, fm, nil)
	assert.Error(t, err)

	_, err = New(nil, store, fm, nil)
	assert.Error(t, err)
}
