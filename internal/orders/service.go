package orders

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/averroes-labs/storefront-gateway/internal/backend"
	"github.com/averroes-labs/storefront-gateway/internal/events"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
)

// Address is a shipping destination as the backend expects it.
type Address struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// CreateParams describes a checkout submission. The cart referenced by
// CartID is consumed by the backend when the order is accepted.
type CreateParams struct {
	CartID   int64   `json:"cart_id"`
	Email    string  `json:"email"`
	Shipping Address `json:"shipping"`
	Notes    string  `json:"notes,omitempty"`
}

type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	Status    string          `json:"status"`
	Email     string          `json:"email"`
	Total     decimal.Decimal `json:"total"`
	Lines     []Line          `json:"items"`
	Shipping  Address         `json:"shipping"`
	CreatedAt time.Time       `json:"created_at"`
}

type TrackingEvent struct {
	Status     string    `json:"status"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Tracking struct {
	Number string          `json:"number"`
	Status string          `json:"status"`
	Events []TrackingEvent `json:"events"`
}

// CheckoutDetails carries storefront-wide checkout settings.
type CheckoutDetails struct {
	ShippingFee           decimal.Decimal `json:"shipping_fee"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
	Currency              string          `json:"currency"`
	PaymentMethods        []string        `json:"payment_methods"`
}

// Service proxies the backend order endpoints. Order lookups accept an
// email because guest orders are scoped to the submitting address rather
// than a session.
type Service struct {
	client *backend.Client
	bus    *events.Bus
	logger *logger.Logger
}

func NewService(client *backend.Client, bus *events.Bus, logg *logger.Logger) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service requires a backend client")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service requires a logger")
	}
	return &Service{client: client, bus: bus, logger: logg}, nil
}

// Create submits a checkout. The backend consumes the cart on success, so
// a cart-updated event is published for the listeners holding a cart view.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Order, error) {
	if params.CartID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if strings.TrimSpace(params.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	resp, err := s.client.Post(ctx, "/orders/", params)
	if err != nil {
		return nil, s.mapFailure(err, "order submission rejected by backend")
	}
	var order Order
	if err := resp.DecodeJSON(&order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding created order")
	}

	lctx := s.logger.WithField(ctx, "order_number", order.Number)
	s.logger.Info(lctx, "order created")
	if s.bus != nil {
		s.bus.Notify(events.TopicCartUpdated)
	}
	return &order, nil
}

// Get returns one order. The email is forwarded when present so guest
// orders resolve without a session.
func (s *Service) Get(ctx context.Context, id int64, email string) (*Order, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	path := fmt.Sprintf("/orders/%d/", id)
	if email != "" {
		path += "?" + url.Values{"email": {email}}.Encode()
	}
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return nil, s.mapFailure(err, "fetching order")
	}
	var order Order
	if err := resp.DecodeJSON(&order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding order")
	}
	return &order, nil
}

// Track returns the shipment trail for an order number. Both the number
// and the email are required because tracking is exposed to guests.
func (s *Service) Track(ctx context.Context, number, email string) (*Tracking, error) {
	if strings.TrimSpace(number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	path := "/orders/track/?" + url.Values{"number": {number}, "email": {email}}.Encode()
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return nil, s.mapFailure(err, "tracking order")
	}
	var tracking Tracking
	if err := resp.DecodeJSON(&tracking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding tracking")
	}
	if tracking.Events == nil {
		tracking.Events = []TrackingEvent{}
	}
	return &tracking, nil
}

// Checkout returns the storefront checkout settings.
func (s *Service) Checkout(ctx context.Context) (*CheckoutDetails, error) {
	resp, err := s.client.Get(ctx, "/checkout-details/")
	if err != nil {
		return nil, s.mapFailure(err, "fetching checkout details")
	}
	var details CheckoutDetails
	if err := resp.DecodeJSON(&details); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding checkout details")
	}
	return &details, nil
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
