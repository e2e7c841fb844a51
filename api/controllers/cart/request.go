package cart

import (
	"github.com/averroes-labs/storefront-gateway/internal/cartsync"
)

type AddItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"omitempty,gt=0"`
	Size      string `json:"size" validate:"omitempty,max=32"`
}

type LineRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Size      string `json:"size" validate:"omitempty,max=32"`
}

type UpdateCartRequest struct {
	CartID  int64         `json:"cart_id" validate:"omitempty,gt=0"`
	Items   []LineRequest `json:"items" validate:"required,dive"`
	Replace *bool         `json:"replace"`
}

type RemoveItemRequest struct {
	CartID     int64  `json:"cart_id" validate:"omitempty,gt=0"`
	CartItemID int64  `json:"cart_item_id" validate:"omitempty,gt=0"`
	ProductID  int64  `json:"product_id" validate:"omitempty,gt=0"`
	Size       string `json:"size" validate:"omitempty,max=32"`
}

func toLines(items []LineRequest) []cartsync.Line {
	lines := make([]cartsync.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartsync.Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
		})
	}
	return lines
}
