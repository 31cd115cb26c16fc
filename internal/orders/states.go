package orders

import (
	"fmt"

	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

// orderTransitions is the complete allow-list of order status changes.
// CANCELLED is reachable from every non-terminal state; DELIVERED can only
// move on to REFUNDED.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendingConfirmation: {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:           {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:           {enums.OrderStatusReadyForPickup, enums.OrderStatusCancelled},
	enums.OrderStatusReadyForPickup:      {enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled},
	enums.OrderStatusOutForDelivery:      {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:           {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:           {},
	enums.OrderStatusRefunded:            {},
}

// CanTransition reports whether an order may move from current to next.
func CanTransition(current, next enums.OrderStatus) bool {
	for _, allowed := range orderTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from current.
func AllowedNext(current enums.OrderStatus) []enums.OrderStatus {
	allowed := orderTransitions[current]
	out := make([]enums.OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

// CanCancel reports whether the customer's cancellation window is still open.
// The window closes once the merchant starts preparing.
func CanCancel(current enums.OrderStatus) bool {
	return current == enums.OrderStatusPendingConfirmation || current == enums.OrderStatusConfirmed
}

func invalidTransition(current, next enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("order cannot move from %s to %s", current, next)).
		WithDetails(map[string]any{
			"current": current,
			"next":    next,
			"allowed": AllowedNext(current),
		})
}
