package razorpay

import (
	"fmt"

	"github.com/tokri-app/tokri-backend/pkg/enums"
)

// Gateway event names delivered on the webhook channel.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// WebhookEvent is the subset of the gateway webhook payload the payments
// core consumes.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				AmountMinorUnits int64  `json:"amount"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// TranslateEvent maps a gateway event name onto the payment status it drives.
func TranslateEvent(event string) (enums.PaymentStatus, error) {
	switch event {
	case EventPaymentCaptured, EventOrderPaid:
		return enums.PaymentStatusCompleted, nil
	case EventPaymentFailed:
		return enums.PaymentStatusFailed, nil
	default:
		return "", fmt.Errorf("unhandled gateway event %q", event)
	}
}
