// Package auth builds the credentials attached to every backend call.
//
// A bearer token held in the session store wins; without one the caller's
// own cookie session is forwarded, the server-side equivalent of a
// same-origin credentialed fetch.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// TokenSource yields the bearer token for the current caller, "" when none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Credentials mode of the built request.
type Credentials string

const (
	CredentialsBearer     Credentials = "bearer"
	CredentialsSameOrigin Credentials = "same-origin"
)

// Context carries what is needed to authenticate one caller.
type Context struct {
	Tokens  TokenSource
	Cookies []*http.Cookie
}

// RequestOptions is the per-call result of Options.
type RequestOptions struct {
	Method      string
	Header      http.Header
	Body        []byte
	Cookies     []*http.Cookie
	Credentials Credentials
}

// Options builds request options for method and an optional body. A
// url.Values body is form-encoded, anything else is sent as JSON. Token read
// failures are treated as "no token".
func (c Context) Options(ctx context.Context, method string, body any) (RequestOptions, error) {
	opts := RequestOptions{Method: method, Header: make(http.Header)}

	token := c.token(ctx)
	if token != "" {
		opts.Header.Set("Authorization", "Bearer "+token)
		opts.Credentials = CredentialsBearer
	} else {
		opts.Cookies = c.Cookies
		opts.Credentials = CredentialsSameOrigin
	}

	if form, ok := body.(url.Values); ok {
		opts.Body = []byte(form.Encode())
		opts.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return opts, nil
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return RequestOptions{}, fmt.Errorf("encode request body: %w", err)
		}
		opts.Body = b
		opts.Header.Set("Content-Type", "application/json")
	}
	return opts, nil
}

func (c Context) token(ctx context.Context) string {
	if c.Tokens == nil {
		return ""
	}
	tok, err := c.Tokens.Token(ctx)
	if err != nil {
		slog.DebugContext(ctx, "Token read failed, continuing without token", "error", err, "component", "auth")
		return ""
	}
	return tok
}

// NewRequest builds an *http.Request for url from the options.
func (o RequestOptions) NewRequest(ctx context.Context, url string) (*http.Request, error) {
	var body io.Reader
	if o.Body != nil {
		body = bytes.NewReader(o.Body)
	}
	req, err := http.NewRequestWithContext(ctx, o.Method, url, body)
	if err != nil {
		return nil, err
	}
	o.Apply(req)
	return req, nil
}

// Apply copies headers and cookies onto req.
func (o RequestOptions) Apply(req *http.Request) {
	for k, vs := range o.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range o.Cookies {
		req.AddCookie(c)
	}
}
