package session

import (
	"net/http"
	"time"
)

// CookieJar reads and writes the cookies of one client.
type CookieJar interface {
	Set(name, value string, expiresAt time.Time) error
	GetAll() map[string]string
	Delete(name string) error
}

// HTTPCookieJar implements CookieJar over one HTTP exchange. Writes made
// during the request are visible to later reads.
type HTTPCookieJar struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	pending map[string]*string
}

// NewHTTPCookieJar wraps a request and its response writer. Cookies are
// HttpOnly, SameSite=Lax and Secure when secure is set.
func NewHTTPCookieJar(w http.ResponseWriter, r *http.Request, secure bool) *HTTPCookieJar {
	return &HTTPCookieJar{w: w, r: r, secure: secure, pending: map[string]*string{}}
}

// Set writes a cookie that expires at expiresAt. A zero expiry makes it a
// browser-session cookie.
func (j *HTTPCookieJar) Set(name, value string, expiresAt time.Time) error {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expiresAt.IsZero() {
		c.Expires = expiresAt.UTC()
		c.MaxAge = int(time.Until(expiresAt).Seconds())
		if c.MaxAge <= 0 {
			c.MaxAge = -1
		}
	}
	http.SetCookie(j.w, c)
	v := value
	j.pending[name] = &v
	return nil
}

// GetAll returns request cookies overlaid with this exchange's writes.
func (j *HTTPCookieJar) GetAll() map[string]string {
	out := make(map[string]string)
	for _, c := range j.r.Cookies() {
		out[c.Name] = c.Value
	}
	for name, v := range j.pending {
		if v == nil {
			delete(out, name)
			continue
		}
		out[name] = *v
	}
	return out
}

// Delete expires a cookie on the client.
func (j *HTTPCookieJar) Delete(name string) error {
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
	j.pending[name] = nil
	return nil
}

// MemoryJar is an in-memory CookieJar, used by tests and tools.
type MemoryJar struct {
	Values  map[string]string
	Expires map[string]time.Time
}

// NewMemoryJar returns an empty MemoryJar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{Values: map[string]string{}, Expires: map[string]time.Time{}}
}

func (m *MemoryJar) Set(name, value string, expiresAt time.Time) error {
	m.Values[name] = value
	m.Expires[name] = expiresAt
	return nil
}

func (m *MemoryJar) GetAll() map[string]string {
	out := make(map[string]string, len(m.Values))
	for k, v := range m.Values {
		out[k] = v
	}
	return out
}

func (m *MemoryJar) Delete(name string) error {
	delete(m.Values, name)
	delete(m.Expires, name)
	return nil
}
