package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/averroes-labs/storefront-gateway/internal/backend"
	"github.com/averroes-labs/storefront-gateway/pkg/config"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
	redispkg "github.com/averroes-labs/storefront-gateway/pkg/redis"
)

const cacheSurface = "catalog"

// Product mirrors the backend product serialization. Prices arrive as
// decimal strings and stay exact end to end.
type Product struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Style       string           `json:"style,omitempty"`
	Colors      []string         `json:"colors,omitempty"`
	Sizes       []string         `json:"sizes,omitempty"`
	Images      []Image          `json:"images,omitempty"`
	Category    *CategoryRef     `json:"category,omitempty"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductPage is one window of a limit/offset paginated listing.
type ProductPage struct {
	Count    int64     `json:"count"`
	Limit    int64     `json:"limit"`
	Offset   int64     `json:"offset"`
	Products []Product `json:"products"`
}

// FilterOptions lists the distinct facet values the catalog can be
// narrowed by.
type FilterOptions struct {
	Brands     []string      `json:"brands"`
	Styles     []string      `json:"styles"`
	Colors     []string      `json:"colors"`
	Sizes      []string      `json:"sizes"`
	Categories []CategoryRef `json:"categories"`
}

// NavbarEntry is one top-level navigation category with its children.
type NavbarEntry struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Slug     string        `json:"slug"`
	Children []NavbarEntry `json:"children,omitempty"`
}

// ListParams narrows a product listing. Zero values mean no filter.
type ListParams struct {
	Category string
	Search   string
	Style    string
	Brand    string
	Color    string
	Size     string
	Limit    int64
	Offset   int64
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("category", p.Category)
	set("search", p.Search)
	set("style", p.Style)
	set("brand", p.Brand)
	set("color", p.Color)
	set("size", p.Size)
	if p.Limit > 0 {
		q.Set("limit", strconv.FormatInt(p.Limit, 10))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.FormatInt(p.Offset, 10))
	}
	return q
}

// pagedResponse matches the backend limit/offset pagination envelope.
type pagedResponse struct {
	Count   int64     `json:"count"`
	Results []Product `json:"results"`
}

// Service proxies the backend catalog endpoints and shields them with a
// best-effort redis cache. Cache faults degrade to a direct proxy call.
type Service struct {
	client *backend.Client
	cache  *redispkg.Client
	cfg    config.CacheConfig
	logger *logger.Logger
}

func NewService(client *backend.Client, cache *redispkg.Client, cfg config.CacheConfig, logg *logger.Logger) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service requires a backend client")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service requires a logger")
	}
	return &Service{client: client, cache: cache, cfg: cfg, logger: logg}, nil
}

// ListProducts returns one page of the catalog. Listings are not cached;
// the filter space is too wide for useful hit rates.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (*ProductPage, error) {
	path := "/products/"
	if encoded := params.query().Encode(); encoded != "" {
		path += "?" + encoded
	}
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return nil, s.mapFailure(err, "listing products")
	}
	var paged pagedResponse
	if err := resp.DecodeJSON(&paged); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding product listing")
	}
	if paged.Results == nil {
		paged.Results = []Product{}
	}
	return &ProductPage{
		Count:    paged.Count,
		Limit:    params.Limit,
		Offset:   params.Offset,
		Products: paged.Results,
	}, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	key := s.cacheKey("product", strconv.FormatInt(id, 10))
	var product Product
	if s.cacheRead(ctx, key, &product) {
		return &product, nil
	}

	resp, err := s.client.Get(ctx, fmt.Sprintf("/products/%d/", id))
	if err != nil {
		return nil, s.mapFailure(err, "fetching product")
	}
	if err := resp.DecodeJSON(&product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding product")
	}
	s.cacheWrite(ctx, key, product, s.cfg.ProductTTL)
	return &product, nil
}

func (s *Service) Filters(ctx context.Context) (*FilterOptions, error) {
	key := s.cacheKey("filters")
	var options FilterOptions
	if s.cacheRead(ctx, key, &options) {
		return &options, nil
	}

	resp, err := s.client.Get(ctx, "/filters/")
	if err != nil {
		return nil, s.mapFailure(err, "fetching filter options")
	}
	if err := resp.DecodeJSON(&options); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding filter options")
	}
	s.cacheWrite(ctx, key, options, s.cfg.NavbarTTL)
	return &options, nil
}

func (s *Service) Navbar(ctx context.Context) ([]NavbarEntry, error) {
	key := s.cacheKey("navbar")
	var entries []NavbarEntry
	if s.cacheRead(ctx, key, &entries) {
		return entries, nil
	}

	resp, err := s.client.Get(ctx, "/navbar/")
	if err != nil {
		return nil, s.mapFailure(err, "fetching navbar")
	}
	if err := resp.DecodeJSON(&entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding navbar")
	}
	if entries == nil {
		entries = []NavbarEntry{}
	}
	s.cacheWrite(ctx, key, entries, s.cfg.NavbarTTL)
	return entries, nil
}

func (s *Service) cacheKey(parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey(cacheSurface, parts...)
}

func (s *Service) cacheRead(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || s.cfg.Disabled || key == "" {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redispkg.IsMiss(err) {
			s.logger.Warn(s.logger.WithField(ctx, "cache_key", key), "catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "cache_key", key), "catalog cache entry is corrupt, dropping it")
		_ = s.cache.Del(ctx, key)
		return false
	}
	return true
}

func (s *Service) cacheWrite(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil || s.cfg.Disabled || key == "" || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), ttl); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "cache_key", key), "catalog cache write failed")
	}
}

func (s *Service) mapFailure(err error, msg string) error {
	if backend.IsStatus(err, 404) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	}
	if backend.IsAuthFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
