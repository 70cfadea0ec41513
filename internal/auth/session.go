package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionTokens reads the bearer token for one session id.
type SessionTokens interface {
	Get(ctx context.Context, id string) (string, error)
}

type sessionSource struct {
	store SessionTokens
	id    string
}

func (s sessionSource) Token(ctx context.Context) (string, error) {
	if s.id == "" || s.store == nil {
		return "", nil
	}
	return s.store.Get(ctx, s.id)
}

// FromRequest builds the auth context of an incoming browser request. The
// frontend's own session cookie is never forwarded to the backend.
func FromRequest(r *http.Request, store SessionTokens, cookieName string) Context {
	var forward []*http.Cookie
	for _, c := range r.Cookies() {
		if c.Name == cookieName {
			continue
		}
		forward = append(forward, c)
	}
	return Context{
		Tokens:  sessionSource{store: store, id: SessionID(r, cookieName)},
		Cookies: forward,
	}
}

// SessionID returns the session id carried by the request, "" when absent.
func SessionID(r *http.Request, cookieName string) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

func SetSessionCookie(w http.ResponseWriter, r *http.Request, name, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
