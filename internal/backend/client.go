package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/averroes-labs/storefront-gateway/pkg/config"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
)

// unsafeMethods lists the methods that require the CSRF header.
var unsafeMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Client is a thin adapter over the remote storefront REST API. It owns the
// base URL, the session cookie jar, and CSRF header injection, and it
// surfaces upstream errors without translating them; retry and fallback
// policy live with the callers.
type Client struct {
	http       *http.Client
	baseURL    *url.URL
	csrf       *TokenProvider
	csrfHeader string
	userAgent  string
	logger     *logger.Logger
}

// Response carries an upstream success payload with its raw body preserved.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into dest. An empty body is left as
// the zero value rather than treated as an error.
func (r *Response) DecodeJSON(dest any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding backend response")
	}
	return nil
}

// StatusError preserves a non-2xx upstream response: status, headers and the
// raw body all survive so callers can inspect and re-surface them.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Method     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// AsStatusError extracts a StatusError from an error chain.
func AsStatusError(err error) *StatusError {
	var typed *StatusError
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsStatus reports whether err is an upstream error with one of the given
// status codes.
func IsStatus(err error, statuses ...int) bool {
	typed := AsStatusError(err)
	if typed == nil {
		return false
	}
	for _, status := range statuses {
		if typed.StatusCode == status {
			return true
		}
	}
	return false
}

// IsAuthFailure reports whether err is an upstream 401 or 403.
func IsAuthFailure(err error) bool {
	return IsStatus(err, http.StatusUnauthorized, http.StatusForbidden)
}

// NewClient builds the adapter from configuration. The cookie jar is created
// here and shared by every request so the backend session survives across
// calls.
func NewClient(cfg config.BackendConfig, logg *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("backend base url must be absolute, got %q", cfg.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	cookieName := cfg.CSRFCookieName
	if cookieName == "" {
		cookieName = "csrftoken"
	}
	header := cfg.CSRFHeaderName
	if header == "" {
		header = "X-CSRFToken"
	}

	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		baseURL:    base,
		csrf:       NewTokenProvider(jar, base, cookieName),
		csrfHeader: header,
		userAgent:  cfg.UserAgent,
		logger:     logg,
	}, nil
}

// BaseURL reports the configured upstream origin and path prefix.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// CSRF exposes the token provider, mainly for tests and diagnostics.
func (c *Client) CSRF() *TokenProvider {
	if c == nil {
		return nil
	}
	return c.csrf
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *Client) Put(ctx context.Context, path string, payload any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, payload)
}

func (c *Client) Patch(ctx context.Context, path string, payload any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, payload)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	target := c.resolve(path)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building backend request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if _, unsafe := unsafeMethods[method]; unsafe {
		if token, ok := c.csrf.ReadToken(); ok {
			req.Header.Set(c.csrfHeader, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("backend %s %s", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       raw,
			Method:     method,
			URL:        target,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       raw,
	}, nil
}

// resolve joins the base URL with the request path, preserving the exact
// trailing-slash shape of the candidate path.
func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}
