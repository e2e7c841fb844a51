package orders

import (
	ordersvc "github.com/averroes-labs/storefront-gateway/internal/orders"
)

type AddressRequest struct {
	FullName   string `json:"full_name" validate:"required,max=120"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
}

type CreateOrderRequest struct {
	CartID   int64          `json:"cart_id" validate:"required,gt=0"`
	Email    string         `json:"email" validate:"required,email"`
	Shipping AddressRequest `json:"shipping" validate:"required"`
	Notes    string         `json:"notes" validate:"omitempty,max=1000"`
}

func toCreateParams(payload CreateOrderRequest) ordersvc.CreateParams {
	return ordersvc.CreateParams{
		CartID: payload.CartID,
		Email:  payload.Email,
		Shipping: ordersvc.Address{
			FullName:   payload.Shipping.FullName,
			Line1:      payload.Shipping.Line1,
			Line2:      payload.Shipping.Line2,
			City:       payload.Shipping.City,
			PostalCode: payload.Shipping.PostalCode,
			Country:    payload.Shipping.Country,
			Phone:      payload.Shipping.Phone,
		},
		Notes: payload.Notes,
	}
}
