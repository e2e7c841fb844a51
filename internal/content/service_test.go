package content

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averroes-labs/storefront-gateway/internal/backend"
	"github.com/averroes-labs/storefront-gateway/pkg/config"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logg := logger.New(logger.Options{ServiceName: "content-test", Level: zerolog.Disabled, Output: io.Discard})
	client, err := backend.NewClient(config.BackendConfig{
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		CSRFCookieName: "csrftoken",
		CSRFHeaderName: "X-CSRFToken",
		UserAgent:      "content-test",
	}, logg)
	require.NoError(t, err)

	service, err := NewService(client, nil, config.CacheConfig{Disabled: true}, logg)
	require.NoError(t, err)
	return service
}

func TestBannersOrderedPayload(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/banners/", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "Summer Sale", "image_url": "/img/1.jpg", "position": 1},
			{"id": 2, "title": "New Arrivals", "image_url": "/img/2.jpg", "position": 2}
		]`))
	})

	banners, err := service.Banners(context.Background())

	require.NoError(t, err)
	require.Len(t, banners, 2)
	assert.Equal(t, "Summer Sale", banners[0].Title)
}

func TestBannersEmptyBodyYieldsEmptySlice(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})

	banners, err := service.Banners(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, banners)
	assert.Empty(t, banners)
}

func TestAboutNotFound(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`{"detail": "not found"}`))
	})

	_, err := service.About(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSubmitContact(t *testing.T) {
	var gotBody []byte
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contact-submissions/", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(201)
	})

	err := service.SubmitContact(context.Background(), SubmissionParams{
		Name:    "Ada",
		Email:   "a@b.com",
		Message: "where is my order",
	})

	require.NoError(t, err)
	assert.Contains(t, string(gotBody), "where is my order")
}

func TestSubmitContactValidation(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the backend")
	})

	err := service.SubmitContact(context.Background(), SubmissionParams{Name: "Ada"})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
