package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tokri-app/tokri-backend/internal/orders"
	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
	"github.com/tokri-app/tokri-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type entityLocker interface {
	Acquire(ctx context.Context, kind, id string) (release func(), acquired bool, err error)
}

// Gateway is the payment gateway collaborator. *razorpay.Client satisfies it.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.GatewayOrder, error)
	KeySecret() string
}

const lockKind = "payment"

// Service defines payment lifecycle operations.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*models.Payment, error)
	Confirm(ctx context.Context, input ConfirmInput) (*models.Payment, error)
	ApplyGatewayEvent(ctx context.Context, event razorpay.WebhookEvent) (*models.Payment, error)
	Refund(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
}

type service struct {
	repo    Repository
	orders  orders.Repository
	gateway Gateway
	tx      txRunner
	locks   entityLocker
	now     func() time.Time
}

// NewService builds a payment service with the required dependencies. The
// order repository is used both to check amounts at initiation and to keep
// the order's payment_status column in step with the payment record.
func NewService(repo Repository, orderRepo orders.Repository, gateway Gateway, tx txRunner, locks entityLocker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if locks == nil {
		return nil, fmt.Errorf("entity locker required")
	}
	return &service{
		repo:    repo,
		orders:  orderRepo,
		gateway: gateway,
		tx:      tx,
		locks:   locks,
		now:     time.Now,
	}, nil
}

// InitiateInput starts collection for an order. Amount is what the caller
// believes is owed and must match the order's final amount exactly.
type InitiateInput struct {
	OrderID uuid.UUID
	Method  enums.PaymentMethod
	Amount  decimal.Decimal
}

func (s *service) Initiate(ctx context.Context, input InitiateInput) (*models.Payment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.Method))
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	// The amount check runs before any gateway round-trip.
	if !input.Amount.Equal(order.FinalAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeAmountMismatch, "payment amount does not match order total").
			WithDetails(map[string]any{
				"expected": order.FinalAmount,
				"received": input.Amount,
			})
	}

	payment := &models.Payment{
		OrderID: input.OrderID,
		Method:  input.Method,
		Status:  enums.PaymentStatusPending,
		Amount:  input.Amount,
	}

	if input.Method == enums.PaymentMethodRazorpay {
		gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
			Amount:   input.Amount,
			Currency: "INR",
			Receipt:  order.OrderNumber,
		})
		if err != nil {
			return nil, err
		}
		payment.GatewayOrderID = &gatewayOrder.ID
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		// A fresh attempt resets the order's view, e.g. a retry after a
		// failed collection.
		return s.syncOrderPaymentStatus(ctx, tx, payment)
	}); err != nil {
		return nil, err
	}
	return payment, nil
}

// syncOrderPaymentStatus mirrors the payment's status onto its order inside
// the same transaction, so an order read never disagrees with the payment
// record it references.
func (s *service) syncOrderPaymentStatus(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	repo := s.orders.WithTx(tx)
	order, err := repo.FindByID(ctx, payment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for payment status")
	}
	if order.PaymentStatus == payment.Status {
		return nil
	}
	order.PaymentStatus = payment.Status
	order.UpdatedAt = s.now().UTC()
	if err := repo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order payment status")
	}
	return nil
}

// ConfirmInput carries the gateway callback fields the customer's client
// returns after checkout.
type ConfirmInput struct {
	PaymentID        uuid.UUID
	GatewayPaymentID string
	Signature        string
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway payment id and signature required")
	}

	release, acquired, err := s.locks.Acquire(ctx, lockKind, input.PaymentID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire payment lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment is being updated by another request")
	}
	defer release()

	var payment *models.Payment
	var verifyErr error
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, input.PaymentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if loaded.GatewayOrderID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment has no gateway order to confirm")
		}
		if !CanTransition(loaded.Status, enums.PaymentStatusCompleted) {
			return invalidTransition(loaded.Status, enums.PaymentStatusCompleted)
		}

		if !razorpay.VerifyPaymentSignature(*loaded.GatewayOrderID, input.GatewayPaymentID, input.Signature, s.gateway.KeySecret()) {
			// The failed mark must survive the rollback a returned error
			// would trigger, so commit it and report the failure afterwards.
			reason := "signature verification failed"
			loaded.Status = enums.PaymentStatusFailed
			loaded.FailureReason = &reason
			loaded.UpdatedAt = s.now().UTC()
			if err := repo.Save(ctx, loaded); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
			}
			if err := s.syncOrderPaymentStatus(ctx, tx, loaded); err != nil {
				return err
			}
			verifyErr = pkgerrors.New(pkgerrors.CodeValidation, reason)
			return nil
		}

		loaded.Status = enums.PaymentStatusCompleted
		loaded.GatewayPaymentID = &input.GatewayPaymentID
		loaded.GatewaySignature = &input.Signature
		loaded.UpdatedAt = s.now().UTC()

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if err := s.syncOrderPaymentStatus(ctx, tx, loaded); err != nil {
			return err
		}
		payment = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if verifyErr != nil {
		return nil, verifyErr
	}
	return payment, nil
}

// ApplyGatewayEvent applies a webhook notification. Re-delivery of an event
// the payment already reflects is a no-op, since the gateway retries until
// acknowledged.
func (s *service) ApplyGatewayEvent(ctx context.Context, event razorpay.WebhookEvent) (*models.Payment, error) {
	next, err := razorpay.TranslateEvent(event.Event)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	gatewayOrderID := event.Payload.Payment.Entity.OrderID
	if gatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing gateway order id")
	}

	var payment *models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByGatewayOrderID(ctx, gatewayOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for gateway order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if loaded.Status == next {
			payment = loaded
			return nil
		}
		if !CanTransition(loaded.Status, next) {
			return invalidTransition(loaded.Status, next)
		}

		loaded.Status = next
		loaded.UpdatedAt = s.now().UTC()
		if id := event.Payload.Payment.Entity.ID; id != "" {
			loaded.GatewayPaymentID = &id
		}
		if next == enums.PaymentStatusFailed {
			if desc := event.Payload.Payment.Entity.ErrorDescription; desc != "" {
				loaded.FailureReason = &desc
			}
		}

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if err := s.syncOrderPaymentStatus(ctx, tx, loaded); err != nil {
			return err
		}
		payment = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) Refund(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	release, acquired, err := s.locks.Acquire(ctx, lockKind, paymentID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire payment lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment is being updated by another request")
	}
	defer release()

	var payment *models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, paymentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if !CanTransition(loaded.Status, enums.PaymentStatusRefunded) {
			return invalidTransition(loaded.Status, enums.PaymentStatusRefunded)
		}

		loaded.Status = enums.PaymentStatusRefunded
		loaded.UpdatedAt = s.now().UTC()

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if err := s.syncOrderPaymentStatus(ctx, tx, loaded); err != nil {
			return err
		}
		payment = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
