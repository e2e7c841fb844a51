package backend

import (
	"net/http"
	"net/url"
	"testing"
)

type staticStore struct {
	cookies []*http.Cookie
}

func (s *staticStore) Cookies(*url.URL) []*http.Cookie { return s.cookies }

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return parsed
}

func TestReadTokenDecodesValue(t *testing.T) {
	store := &staticStore{cookies: []*http.Cookie{
		{Name: "other", Value: "x"},
		{Name: "csrftoken", Value: "abc%3D%3D"},
	}}
	provider := NewTokenProvider(store, mustURL(t, "https://shop.example.com/api"), "csrftoken")

	token, ok := provider.ReadToken()
	if !ok {
		t.Fatal("expected token to be found")
	}
	if token != "abc==" {
		t.Fatalf("expected decoded token, got %q", token)
	}
}

func TestReadTokenAbsence(t *testing.T) {
	base := mustURL(t, "https://shop.example.com/api")

	cases := map[string]*TokenProvider{
		"nil provider":   nil,
		"nil store":      NewTokenProvider(nil, base, "csrftoken"),
		"missing cookie": NewTokenProvider(&staticStore{}, base, "csrftoken"),
		"empty value":    NewTokenProvider(&staticStore{cookies: []*http.Cookie{{Name: "csrftoken", Value: ""}}}, base, "csrftoken"),
		"bad encoding":   NewTokenProvider(&staticStore{cookies: []*http.Cookie{{Name: "csrftoken", Value: "%zz"}}}, base, "csrftoken"),
	}

	for name, provider := range cases {
		if token, ok := provider.ReadToken(); ok || token != "" {
			t.Fatalf("%s: expected absence, got %q", name, token)
		}
	}
}
