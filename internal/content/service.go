package content

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/averroes-labs/storefront-gateway/internal/backend"
	"github.com/averroes-labs/storefront-gateway/pkg/config"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
	redispkg "github.com/averroes-labs/storefront-gateway/pkg/redis"
)

const cacheSurface = "content"

// Banner is a hero slide on the storefront landing page.
type Banner struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url,omitempty"`
	Position int64  `json:"position"`
}

// Overview is a curated collection teaser shown between catalog sections.
type Overview struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Category string `json:"category,omitempty"`
}

type AboutPage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type ContactInfo struct {
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Hours   string `json:"hours,omitempty"`
}

type SubmissionParams struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Service proxies the editorial pages of the backend. Everything here is
// read-mostly, so responses sit in the shared cache for the content TTL.
type Service struct {
	client *backend.Client
	cache  *redispkg.Client
	cfg    config.CacheConfig
	logger *logger.Logger
}

func NewService(client *backend.Client, cache *redispkg.Client, cfg config.CacheConfig, logg *logger.Logger) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "content service requires a backend client")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "content service requires a logger")
	}
	return &Service{client: client, cache: cache, cfg: cfg, logger: logg}, nil
}

func (s *Service) Banners(ctx context.Context) ([]Banner, error) {
	var banners []Banner
	err := s.cachedGet(ctx, "/banners/", "banners", &banners)
	if err != nil {
		return nil, err
	}
	if banners == nil {
		banners = []Banner{}
	}
	return banners, nil
}

func (s *Service) Overviews(ctx context.Context) ([]Overview, error) {
	var overviews []Overview
	err := s.cachedGet(ctx, "/overviews/", "overviews", &overviews)
	if err != nil {
		return nil, err
	}
	if overviews == nil {
		overviews = []Overview{}
	}
	return overviews, nil
}

func (s *Service) About(ctx context.Context) (*AboutPage, error) {
	var page AboutPage
	if err := s.cachedGet(ctx, "/about/", "about", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) Contacts(ctx context.Context) (*ContactInfo, error) {
	var info ContactInfo
	if err := s.cachedGet(ctx, "/contacts/", "contacts", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SubmitContact forwards a contact form submission. Never cached.
func (s *Service) SubmitContact(ctx context.Context, params SubmissionParams) error {
	if strings.TrimSpace(params.Email) == "" || strings.TrimSpace(params.Message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and message are required")
	}
	if _, err := s.client.Post(ctx, "/contact-submissions/", params); err != nil {
		return s.mapFailure(err, "contact submission rejected by backend")
	}
	return nil
}

// cachedGet resolves path through the cache when possible and falls back
// to the proxy call. Cache faults only cost the round trip.
func (s *Service) cachedGet(ctx context.Context, path, surface string, dest any) error {
	key := ""
	if s.cache != nil && !s.cfg.Disabled {
		key = s.cache.CacheKey(cacheSurface, surface)
		if raw, err := s.cache.Get(ctx, key); err == nil {
			if json.Unmarshal([]byte(raw), dest) == nil {
				return nil
			}
			_ = s.cache.Del(ctx, key)
		} else if !redispkg.IsMiss(err) {
			s.logger.Warn(s.logger.WithField(ctx, "cache_key", key), "content cache read failed")
		}
	}

	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return s.mapFailure(err, "fetching "+surface)
	}
	if err := resp.DecodeJSON(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding "+surface)
	}

	if key != "" {
		s.cacheWrite(ctx, key, dest)
	}
	return nil
}

func (s *Service) cacheWrite(ctx context.Context, key string, value any) {
	ttl := s.cfg.ContentTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), ttl); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "cache_key", key), "content cache write failed")
	}
}

func (s *Service) mapFailure(err error, msg string) error {
	if backend.IsStatus(err, 404) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	}
	if backend.IsAuthFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg)
	}
	if statusErr := backend.AsStatusError(err); statusErr != nil && statusErr.StatusCode == 400 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg).
			WithDetails(map[string]any{"server": strings.TrimSpace(string(statusErr.Body))})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
