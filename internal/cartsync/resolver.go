package cartsync

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/averroes-labs/storefront-gateway/internal/backend"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
)

// Route path churn on the backend means most cart endpoints exist under
// several URL shapes (with and without trailing slash, some with a legacy
// prefix). The resolver walks the ordered candidate list and settles on the
// first shape the backend accepts. Two failures abort the walk immediately:
// an auth rejection (401/403) and an HTML body, which means the request
// never reached the API at all, typically a misconfigured base URL serving
// the SPA index page.

const (
	htmlSniffLen    = 200
	htmlSnippetLen  = 1200
	serverDetailLen = 2048
)

// htmlSnippet reports whether body looks like an HTML document. Only the
// leading portion is inspected so a large page does not cost a full scan.
func htmlSnippet(body []byte) (string, bool) {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "", false
	}
	head := strings.ToLower(s[:min(len(s), htmlSniffLen)])
	if !strings.HasPrefix(head, "<!doctype") && !strings.Contains(head, "<html") {
		return "", false
	}
	return s[:min(len(s), htmlSnippetLen)], true
}

func misrouted(cause error, snippet string) error {
	return pkgerrors.Wrap(pkgerrors.CodeMisrouted, cause, "backend answered with an html page instead of json").
		WithDetails(map[string]any{"html": snippet})
}

// classifyAttempt decides whether a failed candidate aborts the walk.
// htmlAborts is false only for item removal, where an HTML body just means
// the candidate shape does not exist and the next fallback tier should run.
func classifyAttempt(err error, htmlAborts bool) (abort bool, classified error) {
	statusErr := backend.AsStatusError(err)
	if statusErr == nil {
		// Transport failure. The next candidate may still work.
		return false, err
	}
	if snippet, ok := htmlSnippet(statusErr.Body); ok {
		if htmlAborts {
			return true, misrouted(err, snippet)
		}
		return false, err
	}
	switch statusErr.StatusCode {
	case http.StatusUnauthorized:
		return true, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "backend requires authentication")
	case http.StatusForbidden:
		return true, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "backend denied access to the cart")
	}
	return false, err
}

type resolver struct {
	client *backend.Client
}

type requestFn func(ctx context.Context, path string) (*backend.Response, error)

// firstSuccess runs fn against each candidate in order and returns the first
// response whose body is not HTML. Advisory failures advance the walk and
// are surfaced through onFallback; abortable ones return immediately.
func (r *resolver) firstSuccess(ctx context.Context, candidates []string, htmlAborts bool, fn requestFn, onFallback func(path string, err error)) (*backend.Response, error) {
	var lastErr error
	for _, path := range candidates {
		resp, err := fn(ctx, path)
		if err == nil {
			if snippet, ok := htmlSnippet(resp.Body); ok {
				if htmlAborts {
					return nil, misrouted(nil, snippet)
				}
				lastErr = fmt.Errorf("%s answered with an html page", path)
				if onFallback != nil {
					onFallback(path, lastErr)
				}
				continue
			}
			return resp, nil
		}
		abort, classified := classifyAttempt(err, htmlAborts)
		if abort {
			return nil, classified
		}
		lastErr = classified
		if onFallback != nil {
			onFallback(path, classified)
		}
	}
	return nil, lastErr
}

func (r *resolver) getFirst(ctx context.Context, candidates []string, onFallback func(string, error)) (*backend.Response, error) {
	return r.firstSuccess(ctx, candidates, true, r.client.Get, onFallback)
}

func (r *resolver) postFirst(ctx context.Context, candidates []string, payload any, htmlAborts bool, onFallback func(string, error)) (*backend.Response, error) {
	return r.firstSuccess(ctx, candidates, htmlAborts, func(ctx context.Context, path string) (*backend.Response, error) {
		return r.client.Post(ctx, path, payload)
	}, onFallback)
}
