package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) { return "", errors.New("storage unavailable") }

type mapTokens map[string]string

func (m mapTokens) Get(_ context.Context, id string) (string, error) { return m[id], nil }

func TestOptionsWithToken(t *testing.T) {
	c := Context{Tokens: StaticToken("abc"), Cookies: []*http.Cookie{{Name: "session", Value: "x"}}}

	opts, err := c.Options(context.Background(), http.MethodPost, map[string]any{"amount": 5})
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", opts.Header.Get("Authorization"))
	assert.Equal(t, "application/json", opts.Header.Get("Content-Type"))
	assert.Equal(t, CredentialsBearer, opts.Credentials)
	assert.Empty(t, opts.Cookies, "cookies are not forwarded when a token is present")
	assert.JSONEq(t, `{"amount":5}`, string(opts.Body))
}

func TestOptionsWithoutTokenFallsBackToCookies(t *testing.T) {
	c := Context{Cookies: []*http.Cookie{{Name: "session", Value: "x"}}}

	opts, err := c.Options(context.Background(), http.MethodGet, nil)
	require.NoError(t, err)

	assert.Empty(t, opts.Header.Get("Authorization"))
	assert.Empty(t, opts.Header.Get("Content-Type"))
	assert.Nil(t, opts.Body)
	assert.Equal(t, CredentialsSameOrigin, opts.Credentials)
	require.Len(t, opts.Cookies, 1)
	assert.Equal(t, "session", opts.Cookies[0].Name)
}

func TestOptionsSwallowsTokenErrors(t *testing.T) {
	c := Context{Tokens: failingTokens{}}

	opts, err := c.Options(context.Background(), http.MethodGet, nil)
	require.NoError(t, err)
	assert.Empty(t, opts.Header.Get("Authorization"))
	assert.Equal(t, CredentialsSameOrigin, opts.Credentials)
}

func TestOptionsFormBody(t *testing.T) {
	c := Context{Tokens: StaticToken("tok")}

	opts, err := c.Options(context.Background(), http.MethodPost, url.Values{"source": {"Salary"}, "amount": {"10"}})
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", opts.Header.Get("Content-Type"))
	assert.Equal(t, "amount=10&source=Salary", string(opts.Body))
	assert.Equal(t, "Bearer tok", opts.Header.Get("Authorization"))
}

func TestFromRequestSkipsOwnCookie(t *testing.T) {
	id := NewSessionID()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sw_session", Value: id})
	r.AddCookie(&http.Cookie{Name: "session", Value: "flask"})

	c := FromRequest(r, mapTokens{id: "tok"}, "sw_session")
	require.Len(t, c.Cookies, 1)
	assert.Equal(t, "session", c.Cookies[0].Name)

	tok, err := c.Tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestSessionIDRejectsGarbage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sw_session", Value: "not-a-uuid"})
	assert.Empty(t, SessionID(r, "sw_session"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionID(r, "sw_session"))
}

func TestRequestOptionsApply(t *testing.T) {
	opts, err := Context{Tokens: StaticToken("t")}.Options(context.Background(), http.MethodPut, map[string]string{"note": "n"})
	require.NoError(t, err)

	req, err := opts.NewRequest(context.Background(), "http://backend/api/expense/1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "Bearer t", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}
