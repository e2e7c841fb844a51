package backend

import (
	"net/http"
	"net/url"
)

// CookieStore is the read surface of an http.CookieJar.
type CookieStore interface {
	Cookies(*url.URL) []*http.Cookie
}

// TokenProvider reads the backend's CSRF cookie. It never fails: a missing
// cookie, an inaccessible store, or an undecodable value all read as absence.
type TokenProvider struct {
	store      CookieStore
	base       *url.URL
	cookieName string
}

func NewTokenProvider(store CookieStore, base *url.URL, cookieName string) *TokenProvider {
	return &TokenProvider{store: store, base: base, cookieName: cookieName}
}

// ReadToken returns the URL-decoded CSRF token and whether one was present.
func (p *TokenProvider) ReadToken() (string, bool) {
	if p == nil || p.store == nil || p.base == nil || p.cookieName == "" {
		return "", false
	}
	for _, cookie := range p.store.Cookies(p.base) {
		if cookie == nil || cookie.Name != p.cookieName {
			continue
		}
		decoded, err := url.QueryUnescape(cookie.Value)
		if err != nil {
			return "", false
		}
		if decoded == "" {
			return "", false
		}
		return decoded, true
	}
	return "", false
}
