package deliveries

import (
	"fmt"

	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

// deliveryTransitions mirrors the order allow-list shape for the rider leg.
// A delivery can be called off any time before handover completes.
var deliveryTransitions = map[enums.DeliveryStatus][]enums.DeliveryStatus{
	enums.DeliveryStatusAssigned:       {enums.DeliveryStatusPickedUp, enums.DeliveryStatusCancelled},
	enums.DeliveryStatusPickedUp:       {enums.DeliveryStatusOutForDelivery, enums.DeliveryStatusCancelled},
	enums.DeliveryStatusOutForDelivery: {enums.DeliveryStatusDelivered, enums.DeliveryStatusCancelled},
	enums.DeliveryStatusDelivered:      {},
	enums.DeliveryStatusCancelled:      {},
}

// CanTransition reports whether a delivery may move from current to next.
func CanTransition(current, next enums.DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from current.
func AllowedNext(current enums.DeliveryStatus) []enums.DeliveryStatus {
	allowed := deliveryTransitions[current]
	out := make([]enums.DeliveryStatus, len(allowed))
	copy(out, allowed)
	return out
}

func invalidTransition(current, next enums.DeliveryStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("delivery cannot move from %s to %s", current, next)).
		WithDetails(map[string]any{
			"current": current,
			"next":    next,
			"allowed": AllowedNext(current),
		})
}
