package payments

import (
	"fmt"

	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

// paymentTransitions: a pending payment resolves to completed or failed;
// only a completed payment can be refunded.
var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending:   {enums.PaymentStatusCompleted, enums.PaymentStatusFailed},
	enums.PaymentStatusCompleted: {enums.PaymentStatusRefunded},
	enums.PaymentStatusFailed:    {},
	enums.PaymentStatusRefunded:  {},
}

// CanTransition reports whether a payment may move from current to next.
func CanTransition(current, next enums.PaymentStatus) bool {
	for _, allowed := range paymentTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from current.
func AllowedNext(current enums.PaymentStatus) []enums.PaymentStatus {
	allowed := paymentTransitions[current]
	out := make([]enums.PaymentStatus, len(allowed))
	copy(out, allowed)
	return out
}

func invalidTransition(current, next enums.PaymentStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("payment cannot move from %s to %s", current, next)).
		WithDetails(map[string]any{
			"current": current,
			"next":    next,
			"allowed": AllowedNext(current),
		})
}
