package cart

import (
	"context"
	"net/http"

	"github.com/averroes-labs/storefront-gateway/api/responses"
	"github.com/averroes-labs/storefront-gateway/api/validators"
	"github.com/averroes-labs/storefront-gateway/internal/cartsync"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
)

// Engine is the slice of the cart reconciliation engine the handlers use.
type Engine interface {
	GetCart(ctx context.Context) (*cartsync.Cart, error)
	CreateCart(ctx context.Context) (*cartsync.Cart, error)
	AddItem(ctx context.Context, productID, quantity int64, size string) (*cartsync.Cart, error)
	UpdateCart(ctx context.Context, cartID int64, items []cartsync.Line, replace bool) (*cartsync.Cart, error)
	RemoveItem(ctx context.Context, params cartsync.RemoveParams) (*cartsync.Cart, error)
}

// CartFetch returns the current cart, creating one when none exists.
func CartFetch(engine Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		cart, err := engine.GetCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartCreate(engine Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		cart, err := engine.CreateCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

func CartAddItem(engine Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == 0 {
			payload.Quantity = 1
		}

		cart, err := engine.AddItem(r.Context(), payload.ProductID, payload.Quantity, payload.Size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartUpdate(engine Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		var payload UpdateCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		replace := true
		if payload.Replace != nil {
			replace = *payload.Replace
		}

		cart, err := engine.UpdateCart(r.Context(), payload.CartID, toLines(payload.Items), replace)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartRemoveItem(engine Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		var payload RemoveItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := engine.RemoveItem(r.Context(), cartsync.RemoveParams{
			CartID:     payload.CartID,
			CartItemID: payload.CartItemID,
			ProductID:  payload.ProductID,
			Size:       payload.Size,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}
