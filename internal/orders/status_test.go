package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velora-dev/storefront-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct {
		from, to enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusConfirmed, enums.OrderStatusProcessing},
		{enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped},
		{enums.OrderStatusProcessing, enums.OrderStatusCancelled},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered},
		{enums.OrderStatusShipped, enums.OrderStatusReturned},
		{enums.OrderStatusDelivered, enums.OrderStatusReturned},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	denied := []struct {
		from, to enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing},
		{enums.OrderStatusPending, enums.OrderStatusShipped},
		{enums.OrderStatusPending, enums.OrderStatusDelivered},
		{enums.OrderStatusConfirmed, enums.OrderStatusShipped},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled},
		{enums.OrderStatusCancelled, enums.OrderStatusPending},
		{enums.OrderStatusCancelled, enums.OrderStatusConfirmed},
		{enums.OrderStatusReturned, enums.OrderStatusDelivered},
		{enums.OrderStatusDelivered, enums.OrderStatusDelivered},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	t.Parallel()

	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
		enums.OrderStatusReturned,
	}
	for _, terminal := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusReturned} {
		assert.True(t, terminal.IsTerminal())
		for _, to := range all {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}
