package cart

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averroes-labs/storefront-gateway/internal/cartsync"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
)

type fakeEngine struct {
	cart *cartsync.Cart
	err  error

	addProductID int64
	addQuantity  int64
	addSize      string
	updateLines  []cartsync.Line
	removeParams cartsync.RemoveParams
}

func (f *fakeEngine) GetCart(ctx context.Context) (*cartsync.Cart, error) {
	return f.cart, f.err
}

func (f *fakeEngine) CreateCart(ctx context.Context) (*cartsync.Cart, error) {
	return f.cart, f.err
}

func (f *fakeEngine) AddItem(ctx context.Context, productID, quantity int64, size string) (*cartsync.Cart, error) {
	f.addProductID, f.addQuantity, f.addSize = productID, quantity, size
	return f.cart, f.err
}

func (f *fakeEngine) UpdateCart(ctx context.Context, cartID int64, items []cartsync.Line, replace bool) (*cartsync.Cart, error) {
	f.updateLines = items
	return f.cart, f.err
}

func (f *fakeEngine) RemoveItem(ctx context.Context, params cartsync.RemoveParams) (*cartsync.Cart, error) {
	f.removeParams = params
	return f.cart, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-handlers-test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestCartFetchEnvelope(t *testing.T) {
	engine := &fakeEngine{cart: &cartsync.Cart{ID: 7, Items: []cartsync.Line{{ID: 1, ProductID: 10, Quantity: 2, Size: "M"}}}}
	rec := httptest.NewRecorder()

	CartFetch(engine, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data cartsync.Cart `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.Data.ID)
	require.Len(t, body.Data.Items, 1)
}

func TestCartAddItemDefaultsQuantity(t *testing.T) {
	engine := &fakeEngine{cart: &cartsync.Cart{ID: 7}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id": 10, "size": "M"}`))

	CartAddItem(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(10), engine.addProductID)
	assert.Equal(t, int64(1), engine.addQuantity)
	assert.Equal(t, "M", engine.addSize)
}

func TestCartAddItemRejectsBadPayload(t *testing.T) {
	engine := &fakeEngine{cart: &cartsync.Cart{ID: 7}}
	cases := []string{
		`{"quantity": 1}`,
		`{"product_id": -2}`,
		`{"product_id": 10, "quantity": -1}`,
		`not json`,
	}
	for _, payload := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload))

		CartAddItem(engine, testLogger())(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %s", payload)
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(pkgerrors.CodeValidation), body.Error.Code)
	}
}

func TestCartUpdateDefaultsReplace(t *testing.T) {
	engine := &fakeEngine{cart: &cartsync.Cart{ID: 7}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/",
		strings.NewReader(`{"cart_id": 7, "items": [{"product_id": 10, "quantity": 2, "size": "M"}]}`))

	CartUpdate(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, engine.updateLines, 1)
	assert.Equal(t, cartsync.Line{ProductID: 10, Quantity: 2, Size: "M"}, engine.updateLines[0])
}

func TestCartRemoveItemNoOpStatus(t *testing.T) {
	engine := &fakeEngine{err: pkgerrors.New(pkgerrors.CodeNoOp, "no cart line matched the removal request")}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items/remove",
		strings.NewReader(`{"product_id": 99, "size": "XL"}`))

	CartRemoveItem(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, cartsync.RemoveParams{ProductID: 99, Size: "XL"}, engine.removeParams)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(pkgerrors.CodeNoOp), body.Error.Code)
	assert.Contains(t, body.Error.Message, "no cart line matched")
}

func TestCartHandlersMapUpstreamFailures(t *testing.T) {
	engine := &fakeEngine{err: pkgerrors.New(pkgerrors.CodeMisrouted, "backend answered with an html page instead of json")}
	rec := httptest.NewRecorder()

	CartFetch(engine, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
}
