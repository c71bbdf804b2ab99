package orders

import (
	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
)

// CreateInput carries everything checkout needs beyond the cart itself.
type CreateInput struct {
	UserID          uuid.UUID
	PaymentMethod   enums.PaymentMethod
	ShippingName    string
	ShippingPhone   string
	ShippingAddress string
	Notes           *string
	PromotionCode   string
}

// TransitionInput is a staff-initiated status change.
type TransitionInput struct {
	OrderID      uuid.UUID
	ActorID      uuid.UUID
	To           enums.OrderStatus
	CancelReason *string
}

// CancelInput is a customer cancelling their own order.
type CancelInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Reason  *string
}

// OrderPage is one cursor page of a user's order history.
type OrderPage struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}
