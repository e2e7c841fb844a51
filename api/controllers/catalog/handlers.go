package catalog

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/averroes-labs/storefront-gateway/api/responses"
	"github.com/averroes-labs/storefront-gateway/api/validators"
	catalogsvc "github.com/averroes-labs/storefront-gateway/internal/catalog"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
	"github.com/averroes-labs/storefront-gateway/pkg/types"
)

const defaultPageLimit = 24

type Service interface {
	ListProducts(ctx context.Context, params catalogsvc.ListParams) (*catalogsvc.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*catalogsvc.Product, error)
	Filters(ctx context.Context) (*catalogsvc.FilterOptions, error)
	Navbar(ctx context.Context) ([]catalogsvc.NavbarEntry, error)
}

func ProductList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.QueryInt64(r, "limit", defaultPageLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.QueryInt64(r, "offset", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		page, err := svc.ListProducts(r.Context(), catalogsvc.ListParams{
			Category: q.Get("category"),
			Search:   q.Get("search"),
			Style:    q.Get("style"),
			Brand:    q.Get("brand"),
			Color:    q.Get("color"),
			Size:     q.Get("size"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePaged(w, page.Products, types.PageMeta{
			Count:  page.Count,
			Limit:  page.Limit,
			Offset: page.Offset,
		})
	}
}

func ProductDetail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.PathInt64(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func Filters(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		options, err := svc.Filters(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, options)
	}
}

func Navbar(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		entries, err := svc.Navbar(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
