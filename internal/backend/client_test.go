package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/averroes-labs/storefront-gateway/pkg/config"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(config.BackendConfig{
		BaseURL:        serverURL,
		Timeout:        5 * time.Second,
		CSRFCookieName: "csrftoken",
		CSRFHeaderName: "X-CSRFToken",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestCSRFHeaderOnUnsafeMethodsOnly(t *testing.T) {
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/csrf/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok-123", Path: "/"})
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+":"+r.Header.Get("X-CSRFToken"))
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	// Prime the jar.
	if _, err := client.Get(ctx, "/auth/csrf/"); err != nil {
		t.Fatalf("priming csrf cookie: %v", err)
	}

	if _, err := client.Get(ctx, "/cart/"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := client.Post(ctx, "/cart/", map[string]any{"items": []any{}}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := client.Put(ctx, "/cart/1/", map[string]any{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := client.Delete(ctx, "/cart-items/1/"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"GET:", "POST:tok-123", "PUT:tok-123", "DELETE:tok-123"}
	if len(seen) != len(want) {
		t.Fatalf("expected %d requests, saw %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("request %d: expected %q got %q", i, want[i], seen[i])
		}
	}
}

func TestSessionCookieTravelsAcrossCalls(t *testing.T) {
	var sessionSeen string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc", Path: "/"})
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/cart/my/", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("sessionid"); err == nil {
			sessionSeen = cookie.Value
		}
		w.Write([]byte(`{"id":1,"items":[]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	if _, err := client.Post(ctx, "/auth/login/", map[string]string{"email": "a@b.c"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := client.Get(ctx, "/cart/my/"); err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if sessionSeen != "abc" {
		t.Fatalf("expected session cookie to travel, saw %q", sessionSeen)
	}
}

func TestStatusErrorPreservesUpstreamPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "django")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"product_id":"Required"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Post(context.Background(), "/cart/1/add_item/", map[string]any{})
	if err == nil {
		t.Fatal("expected error for 400")
	}

	statusErr := AsStatusError(err)
	if statusErr == nil {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if string(statusErr.Body) != `{"product_id":"Required"}` {
		t.Fatalf("body not preserved: %s", statusErr.Body)
	}
	if statusErr.Header.Get("X-Upstream") != "django" {
		t.Fatal("headers not preserved")
	}

	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatal("IsStatus should match 400")
	}
	if IsAuthFailure(err) {
		t.Fatal("400 is not an auth failure")
	}
}

func TestIsAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		err := &StatusError{StatusCode: status}
		if !IsAuthFailure(error(err)) {
			t.Fatalf("expected %d to be an auth failure", status)
		}
	}
	if IsAuthFailure(&StatusError{StatusCode: http.StatusNotFound}) {
		t.Fatal("404 is not an auth failure")
	}
	if IsAuthFailure(nil) {
		t.Fatal("nil is not an auth failure")
	}
}

func TestResolvePreservesTrailingSlashShape(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()
	client.Get(ctx, "/cart/my/")
	client.Get(ctx, "/cart/my")

	if len(paths) != 2 || paths[0] != "/cart/my/" || paths[1] != "/cart/my" {
		t.Fatalf("trailing slash shape not preserved: %v", paths)
	}
}
