// Package cookie reads and writes HTTP cookies on net/http requests and
// responses.
package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Option adjusts a cookie before it is written.
type Option func(*http.Cookie)

func WithPath(path string) Option { return func(c *http.Cookie) { c.Path = path } }

func WithDomain(domain string) Option { return func(c *http.Cookie) { c.Domain = domain } }

// WithMaxAge sets Max-Age in whole seconds. Zero leaves a session cookie.
func WithMaxAge(d time.Duration) Option {
	return func(c *http.Cookie) { c.MaxAge = int(d / time.Second) }
}

func WithExpires(t time.Time) Option { return func(c *http.Cookie) { c.Expires = t } }

func WithSecure(secure bool) Option { return func(c *http.Cookie) { c.Secure = secure } }

// WithHTTPOnly overrides the default HttpOnly=true.
func WithHTTPOnly(httpOnly bool) Option { return func(c *http.Cookie) { c.HttpOnly = httpOnly } }

func WithSameSite(mode http.SameSite) Option { return func(c *http.Cookie) { c.SameSite = mode } }

// Get returns the named cookie, or nil if the request does not carry it.
func Get(r *http.Request, name string) *http.Cookie {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return nil
	}
	return c
}

// Value returns the value of the named cookie.
func Value(r *http.Request, name string) (string, bool) {
	c := Get(r, name)
	if c == nil {
		return "", false
	}
	return c.Value, true
}

// All returns the request cookies by name. When a name repeats the first
// occurrence wins, the way net/http resolves Request.Cookie.
func All(r *http.Request) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range r.Cookies() {
		if _, ok := out[c.Name]; !ok {
			out[c.Name] = c
		}
	}
	return out
}

// Set adds a Set-Cookie header. Cookies default to Path "/" and HttpOnly.
func Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	c := &http.Cookie{Name: name, Value: value, Path: "/", HttpOnly: true}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Valid(); err != nil {
		return fmt.Errorf("cookie %q: %w", name, err)
	}
	http.SetCookie(w, c)
	return nil
}

// Delete expires the named cookie on the client. Path and domain must match
// the ones the cookie was set with.
func Delete(w http.ResponseWriter, name string, opts ...Option) error {
	opts = append(opts, func(c *http.Cookie) {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	})
	return Set(w, name, "", opts...)
}
