package cartsync

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
)

// Cart is the canonical client-side view of the server-owned cart. It is a
// read-through copy: the backend stays the source of truth and the view is
// refreshed after every mutation.
type Cart struct {
	ID    int64  `json:"id"`
	Items []Line `json:"items"`
}

// Line is one persisted (product, size) entry. ID is server-assigned and
// zero until the line has been persisted.
type Line struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size"`
}

// MergeKey identifies the purchasable variant a line represents. Size is
// matched exactly; the empty string is a distinct variant of its own.
type MergeKey struct {
	ProductID int64
	Size      string
}

func (l Line) Key() MergeKey {
	return MergeKey{ProductID: l.ProductID, Size: l.Size}
}

// Upstream line shapes vary: quantity may arrive as a string, the product
// reference may be nested ({product: {id}}) or flat (product_id), and some
// endpoints return the cart wrapped in an array. The wire types absorb all
// of that here so the engine only ever sees the canonical structs.

type wireCart struct {
	ID    flexInt64  `json:"id"`
	Items []wireLine `json:"items"`
}

type wireLine struct {
	ID        flexInt64    `json:"id"`
	Product   *wireProduct `json:"product"`
	ProductID flexInt64    `json:"product_id"`
	Quantity  flexInt64    `json:"quantity"`
	Qty       flexInt64    `json:"qty"`
	Size      string       `json:"size"`
}

type wireProduct struct {
	ID flexInt64 `json:"id"`
}

func (w wireCart) normalize() *Cart {
	cart := &Cart{ID: int64(w.ID), Items: make([]Line, 0, len(w.Items))}
	for _, item := range w.Items {
		line, ok := item.normalize()
		if !ok {
			continue
		}
		cart.Items = append(cart.Items, line)
	}
	return cart
}

// normalize returns false for lines without any product reference; they can
// never be merged, removed by key, or re-submitted in a replace payload.
func (w wireLine) normalize() (Line, bool) {
	productID := int64(w.ProductID)
	if w.Product != nil && w.Product.ID != 0 {
		productID = int64(w.Product.ID)
	}
	if productID == 0 {
		return Line{}, false
	}
	quantity := int64(w.Quantity)
	if quantity == 0 {
		quantity = int64(w.Qty)
	}
	return Line{
		ID:        int64(w.ID),
		ProductID: productID,
		Quantity:  quantity,
		Size:      w.Size,
	}, true
}

// decodeCart normalizes a cart payload. An empty body or an empty array
// yields the empty-cart sentinel rather than an error.
func decodeCart(body []byte) (*Cart, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Cart{Items: []Line{}}, nil
	}
	if trimmed[0] == '[' {
		var list []wireCart
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding cart list payload")
		}
		if len(list) == 0 {
			return &Cart{Items: []Line{}}, nil
		}
		return list[0].normalize(), nil
	}
	var wc wireCart
	if err := json.Unmarshal(trimmed, &wc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding cart payload")
	}
	return wc.normalize(), nil
}

// flexInt64 tolerates numbers, numeric strings, and null. Unparseable input
// normalizes to 0 instead of failing the whole payload.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	*f = 0
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		*f = flexInt64(parseLoose(s))
		return nil
	}
	*f = flexInt64(parseLoose(string(trimmed)))
	return nil
}

func parseLoose(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(fl)
	}
	return 0
}
