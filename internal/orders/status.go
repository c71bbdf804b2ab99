package orders

import (
	"time"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
)

// transitions is the complete forward map of the order lifecycle. Absence of
// an edge means the transition is illegal. Terminal states have no outgoing
// edges at all.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusReturned},
	enums.OrderStatusDelivered:  {enums.OrderStatusReturned},
	enums.OrderStatusCancelled:  nil,
	enums.OrderStatusReturned:   nil,
}

// CanTransition reports whether moving from one status to another is allowed
// by the lifecycle graph.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// restoresStock reports whether leaving this status for cancelled or returned
// must put the reserved units back. Shipped and delivered stock only comes
// back through a return.
func restoresStock(to enums.OrderStatus) bool {
	return to == enums.OrderStatusCancelled || to == enums.OrderStatusReturned
}

// applyTimestamp stamps the transition time onto the matching lifecycle
// column of the order.
func applyTimestamp(order *models.Order, to enums.OrderStatus, at time.Time) {
	switch to {
	case enums.OrderStatusConfirmed:
		order.ConfirmedAt = &at
	case enums.OrderStatusShipped:
		order.ShippedAt = &at
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &at
	case enums.OrderStatusCancelled:
		order.CancelledAt = &at
	case enums.OrderStatusReturned:
		order.ReturnedAt = &at
	}
}
