package cartsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/averroes-labs/storefront-gateway/internal/backend"
	"github.com/averroes-labs/storefront-gateway/internal/events"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
	"github.com/averroes-labs/storefront-gateway/pkg/metrics"
)

const (
	opGetCart    = "get_cart"
	opCreateCart = "create_cart"
	opAddItem    = "add_item"
	opUpdateCart = "update_cart"
	opRemoveItem = "remove_item"
)

var getCartCandidates = []string{"/cart/my/", "/cart/my", "/cart/", "/cart"}

const createCartPath = "/cart/"

func cartPath(cartID int64) string {
	return fmt.Sprintf("/cart/%d/", cartID)
}

func addItemCandidates(cartID int64) []string {
	return []string{
		fmt.Sprintf("/cart/%d/add_item/", cartID),
		fmt.Sprintf("/cart/%d/add_item", cartID),
		"/cart/add_item/",
		"/cart/add_item",
	}
}

func removeItemCandidates(cartID int64) []string {
	return []string{
		fmt.Sprintf("/cart/%d/remove_item/", cartID),
		fmt.Sprintf("/cart/%d/remove_item", cartID),
		"/cart/remove_item/",
		"/cart/remove_item",
	}
}

func deleteLineCandidates(itemID int64) []string {
	return []string{
		fmt.Sprintf("/cart-items/%d/", itemID),
		fmt.Sprintf("/cart-items/%d", itemID),
	}
}

type linePayload struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size"`
}

type createPayload struct {
	Items []linePayload `json:"items"`
}

type replacePayload struct {
	Items   []linePayload `json:"items"`
	Replace bool          `json:"replace"`
}

type removeByLinePayload struct {
	CartItemID int64 `json:"cartItemId"`
}

type removeByKeyPayload struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size"`
}

func toPayloadLines(items []Line) []linePayload {
	payload := make([]linePayload, 0, len(items))
	for _, line := range items {
		if line.ProductID == 0 {
			continue
		}
		payload = append(payload, linePayload{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Size:      line.Size,
		})
	}
	return payload
}

// RemoveParams identifies the line to remove. CartItemID targets one
// server-assigned line; ProductID plus Size targets every line carrying
// that variant key. At least one identifier is required. CartID is an
// optional hint that skips the lookup round trip.
type RemoveParams struct {
	CartID     int64
	CartItemID int64
	ProductID  int64
	Size       string
}

// Engine reconciles a locally observed cart against the backend cart
// resource. It owns the merge and replace semantics and the per-operation
// fallback ladders; endpoint shape discovery lives in the resolver. Every
// successful mutation re-settles on the authoritative server state and
// publishes a cart-updated event.
type Engine struct {
	client   *backend.Client
	resolver *resolver
	bus      *events.Bus
	logger   *logger.Logger
	metrics  *metrics.CartSyncMetrics
}

func NewEngine(client *backend.Client, bus *events.Bus, logg *logger.Logger, m *metrics.CartSyncMetrics) (*Engine, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cartsync engine requires a backend client")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cartsync engine requires a logger")
	}
	return &Engine{
		client:   client,
		resolver: &resolver{client: client},
		bus:      bus,
		logger:   logg,
		metrics:  m,
	}, nil
}

// GetCart returns the current server cart, creating one when no GET shape
// resolves. Auth rejections and misrouted HTML responses propagate instead
// of triggering creation.
func (e *Engine) GetCart(ctx context.Context) (cart *Cart, err error) {
	defer e.observe(opGetCart, time.Now(), &err)

	resp, rerr := e.resolver.getFirst(ctx, getCartCandidates, e.onFallback(ctx, opGetCart))
	if rerr != nil {
		if isHardFailure(rerr) {
			err = rerr
			return nil, err
		}
		lctx := e.logger.WithOperation(ctx, opGetCart)
		e.logger.Warn(lctx, "no cart endpoint answered, creating a cart")
		cart, err = e.createCart(ctx)
		return cart, err
	}
	cart, err = decodeCart(resp.Body)
	return cart, err
}

// CreateCart provisions an empty cart. An empty response body settles on
// the zero-ID sentinel rather than failing; callers that need a persisted
// ID treat the sentinel as a backend fault.
func (e *Engine) CreateCart(ctx context.Context) (cart *Cart, err error) {
	defer e.observe(opCreateCart, time.Now(), &err)
	cart, err = e.createCart(ctx)
	return cart, err
}

func (e *Engine) createCart(ctx context.Context) (*Cart, error) {
	resp, err := e.client.Post(ctx, createCartPath, createPayload{Items: []linePayload{}})
	if err != nil {
		return nil, e.mapFailure(err, "cart creation rejected by backend")
	}
	if snippet, ok := htmlSnippet(resp.Body); ok {
		return nil, misrouted(nil, snippet)
	}
	return decodeCart(resp.Body)
}

// AddItem adds quantity of a (product, size) variant. The dedicated
// add_item endpoints are tried first; when every shape is missing the
// engine falls back to a locally merged full replace so the write still
// lands exactly once.
func (e *Engine) AddItem(ctx context.Context, productID, quantity int64, size string) (cart *Cart, err error) {
	defer e.observe(opAddItem, time.Now(), &err)

	if productID <= 0 {
		err = pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		return nil, err
	}
	if quantity < 1 {
		err = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		return nil, err
	}

	current, gerr := e.GetCart(ctx)
	if gerr != nil {
		err = gerr
		return nil, err
	}
	if current.ID == 0 {
		current, gerr = e.createCart(ctx)
		if gerr != nil {
			err = gerr
			return nil, err
		}
	}
	if current.ID == 0 {
		err = pkgerrors.New(pkgerrors.CodeDependency, "backend did not assign a cart id")
		return nil, err
	}

	payload := linePayload{ProductID: productID, Quantity: quantity, Size: size}
	resp, perr := e.resolver.postFirst(ctx, addItemCandidates(current.ID), payload, true, e.onFallback(ctx, opAddItem))
	if perr == nil {
		cart, err = e.settle(ctx, resp, true)
		if err == nil {
			e.notify()
		}
		return cart, err
	}
	if isHardFailure(perr) {
		err = perr
		return nil, err
	}

	// No add_item shape exists on this backend. Re-read the authoritative
	// cart, merge the new line locally, and push the whole list back.
	lctx := e.logger.WithOperation(ctx, opAddItem)
	e.logger.Warn(lctx, "add_item endpoints unavailable, falling back to merge and replace")
	latest, gerr := e.GetCart(ctx)
	if gerr != nil {
		err = gerr
		return nil, err
	}
	if latest.ID == 0 {
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, perr, "no cart id available for replace fallback")
		return nil, err
	}
	merged := Merge(latest.Items, Line{ProductID: productID, Quantity: quantity, Size: size})
	cart, err = e.UpdateCart(ctx, latest.ID, merged, true)
	return cart, err
}

// UpdateCart writes the given line list to the cart. PUT is attempted
// first; 400, 404 and 405 answers retry once as PATCH with the identical
// payload because some backend deployments only route partial updates.
// Any other failure is raised without the retry.
func (e *Engine) UpdateCart(ctx context.Context, cartID int64, items []Line, replace bool) (cart *Cart, err error) {
	defer e.observe(opUpdateCart, time.Now(), &err)

	if cartID == 0 {
		current, gerr := e.GetCart(ctx)
		if gerr != nil {
			err = gerr
			return nil, err
		}
		cartID = current.ID
	}
	if cartID == 0 {
		err = pkgerrors.New(pkgerrors.CodeDependency, "no cart id available for update")
		return nil, err
	}

	payload := replacePayload{Items: toPayloadLines(items), Replace: replace}
	resp, perr := e.client.Put(ctx, cartPath(cartID), payload)
	if perr != nil && backend.IsStatus(perr, 400, 404, 405) {
		lctx := e.logger.WithCartID(e.logger.WithOperation(ctx, opUpdateCart), cartID)
		e.logger.Warn(lctx, "put rejected, retrying cart update as patch")
		e.metrics.IncEndpointFallback(opUpdateCart)
		resp, perr = e.client.Patch(ctx, cartPath(cartID), payload)
	}
	if perr != nil {
		err = e.mapFailure(perr, "cart update rejected by backend")
		return nil, err
	}

	cart, err = e.settle(ctx, resp, false)
	if err == nil {
		e.notify()
	}
	return cart, err
}

// RemoveItem deletes a line through three tiers: a direct DELETE on the
// line resource, the remove_item action endpoints, and finally a local
// filter pushed back as a full replace. A filter that matches nothing
// reports a no-op instead of rewriting the cart unchanged.
func (e *Engine) RemoveItem(ctx context.Context, params RemoveParams) (cart *Cart, err error) {
	defer e.observe(opRemoveItem, time.Now(), &err)

	if params.CartItemID == 0 && params.ProductID == 0 {
		err = pkgerrors.New(pkgerrors.CodeValidation, "a cart item id or a product id is required")
		return nil, err
	}

	cartID := params.CartID
	if cartID == 0 {
		current, gerr := e.GetCart(ctx)
		if gerr != nil {
			err = gerr
			return nil, err
		}
		cartID = current.ID
	}
	if cartID == 0 {
		err = pkgerrors.New(pkgerrors.CodeDependency, "no cart id available for removal")
		return nil, err
	}
	lctx := e.logger.WithCartID(e.logger.WithOperation(ctx, opRemoveItem), cartID)

	if params.CartItemID != 0 {
		resp, derr := e.resolver.firstSuccess(ctx, deleteLineCandidates(params.CartItemID), false,
			e.client.Delete, e.onFallback(ctx, opRemoveItem))
		if derr == nil {
			cart, err = e.settle(ctx, resp, false)
			if err == nil {
				e.notify()
			}
			return cart, err
		}
		if isHardFailure(derr) {
			err = derr
			return nil, err
		}
		e.logger.Warn(lctx, "direct line delete failed, trying remove_item endpoints")
	}

	var payload any
	if params.CartItemID != 0 {
		payload = removeByLinePayload{CartItemID: params.CartItemID}
	} else {
		payload = removeByKeyPayload{ProductID: params.ProductID, Size: params.Size}
	}
	resp, perr := e.resolver.postFirst(ctx, removeItemCandidates(cartID), payload, false, e.onFallback(ctx, opRemoveItem))
	if perr == nil {
		cart, err = e.settle(ctx, resp, false)
		if err == nil {
			e.notify()
		}
		return cart, err
	}
	if isHardFailure(perr) {
		err = perr
		return nil, err
	}
	e.logger.Warn(lctx, "remove_item endpoints unavailable, falling back to filter and replace")

	latest, gerr := e.GetCart(ctx)
	if gerr != nil {
		err = gerr
		return nil, err
	}
	filtered := make([]Line, 0, len(latest.Items))
	removed := false
	for _, line := range latest.Items {
		var match bool
		if params.CartItemID != 0 {
			match = line.ID == params.CartItemID
		} else {
			match = line.ProductID == params.ProductID && line.Size == params.Size
		}
		if match {
			removed = true
			continue
		}
		filtered = append(filtered, line)
	}
	if !removed {
		err = pkgerrors.New(pkgerrors.CodeNoOp, "no cart line matched the removal request").
			WithDetails(map[string]any{
				"cart_item_id": params.CartItemID,
				"product_id":   params.ProductID,
				"size":         params.Size,
			})
		return nil, err
	}
	cart, err = e.UpdateCart(ctx, latest.ID, filtered, true)
	return cart, err
}

// settle converts a mutation response into the authoritative cart. An HTML
// body means the mutation never reached the API and is raised as a
// misrouting fault. When the body is empty, undecodable, or clearly not a
// cart serialization the engine re-reads the cart instead of trusting the
// response; that re-read never creates a cart, a mutation just succeeded
// against one.
func (e *Engine) settle(ctx context.Context, resp *backend.Response, needItems bool) (*Cart, error) {
	if snippet, ok := htmlSnippet(resp.Body); ok {
		return nil, misrouted(nil, snippet)
	}
	cart, err := decodeCart(resp.Body)
	if err == nil && cart.ID != 0 && (!needItems || len(cart.Items) > 0) {
		return cart, nil
	}
	cart, err = e.fetchCart(ctx)
	if err != nil {
		return nil, e.mapFailure(err, "cart read after mutation failed")
	}
	return cart, nil
}

// fetchCart reads the server cart without GetCart's create-on-miss fallback.
func (e *Engine) fetchCart(ctx context.Context) (*Cart, error) {
	resp, err := e.resolver.getFirst(ctx, getCartCandidates, e.onFallback(ctx, opGetCart))
	if err != nil {
		return nil, err
	}
	return decodeCart(resp.Body)
}

func (e *Engine) mapFailure(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if abort, classified := classifyAttempt(err, true); abort {
		return classified
	}
	if statusErr := backend.AsStatusError(err); statusErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg).
			WithDetails(map[string]any{"server": serverDetail(statusErr.Body)})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func (e *Engine) onFallback(ctx context.Context, op string) func(string, error) {
	return func(path string, cause error) {
		e.metrics.IncEndpointFallback(op)
		lctx := e.logger.WithEndpoint(e.logger.WithOperation(ctx, op), path)
		if cause != nil {
			lctx = e.logger.WithField(lctx, "cause", cause.Error())
		}
		e.logger.Warn(lctx, "cart endpoint candidate failed, trying the next shape")
	}
}

func (e *Engine) observe(op string, start time.Time, err *error) {
	e.metrics.ObserveDuration(op, time.Since(start))
	outcome := "success"
	if *err != nil {
		outcome = "error"
	}
	e.metrics.IncOutcome(op, outcome)
}

func (e *Engine) notify() {
	if e.bus != nil {
		e.bus.Notify(events.TopicCartUpdated)
	}
}

func isHardFailure(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) ||
		pkgerrors.IsCode(err, pkgerrors.CodeForbidden) ||
		pkgerrors.IsCode(err, pkgerrors.CodeMisrouted)
}

func serverDetail(body []byte) string {
	s := strings.TrimSpace(string(body))
	return s[:min(len(s), serverDetailLen)]
}
