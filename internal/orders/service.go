package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tokri-app/tokri-backend/pkg/db"
	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
	"github.com/tokri-app/tokri-backend/pkg/fees"
	"github.com/tokri-app/tokri-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type entityLocker interface {
	Acquire(ctx context.Context, kind, id string) (release func(), acquired bool, err error)
}

const lockKind = "order"

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	ApplyTransition(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	locks entityLocker
	now   func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, locks entityLocker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if locks == nil {
		return nil, fmt.Errorf("entity locker required")
	}
	return &service{
		repo:  repo,
		tx:    tx,
		locks: locks,
		now:   time.Now,
	}, nil
}

// CreateOrderItemInput is one purchased line; product details are frozen into
// a snapshot at this point.
type CreateOrderItemInput struct {
	ProductID   *uuid.UUID
	Name        string
	Description string
	ImageURL    string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	OrderNumber    string
	CustomerID     uuid.UUID
	MerchantID     uuid.UUID
	Items          []CreateOrderItemInput
	DeliveryFee    decimal.Decimal
	DiscountAmount decimal.Decimal
	Notes          *string
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.DeliveryFee.IsNegative() || input.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "fees and discounts cannot be negative")
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount,
				fmt.Sprintf("item %d: unit price cannot be negative", i))
		}
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		total = total.Add(subtotal)
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Snapshot: types.ProductSnapshot{
				Name:        item.Name,
				Description: item.Description,
				UnitPrice:   item.UnitPrice,
				ImageURL:    item.ImageURL,
			},
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		})
	}

	tax := fees.Tax(total)
	final, err := fees.FinalAmount(total, input.DeliveryFee, tax, input.DiscountAmount)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:    input.OrderNumber,
		CustomerID:     input.CustomerID,
		MerchantID:     input.MerchantID,
		Status:         enums.OrderStatusPendingConfirmation,
		PaymentStatus:  enums.PaymentStatusPending,
		TotalAmount:    total,
		DeliveryFee:    input.DeliveryFee.Round(2),
		TaxAmount:      tax,
		DiscountAmount: input.DiscountAmount.Round(2),
		FinalAmount:    final,
		Notes:          input.Notes,
		Items:          items,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	}); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("order number %s already exists", input.OrderNumber))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

func (s *service) ApplyTransition(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}

	release, acquired, err := s.locks.Acquire(ctx, lockKind, orderID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is being updated by another request")
	}
	defer release()

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !CanTransition(loaded.Status, next) {
			return invalidTransition(loaded.Status, next)
		}

		now := s.now().UTC()
		loaded.Status = next
		loaded.UpdatedAt = now
		if next == enums.OrderStatusDelivered && loaded.DeliveredAt == nil {
			loaded.DeliveredAt = &now
		}

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	release, acquired, err := s.locks.Acquire(ctx, lockKind, orderID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is being updated by another request")
	}
	defer release()

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !CanCancel(loaded.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s can no longer be cancelled", loaded.Status))
		}

		loaded.Status = enums.OrderStatusCancelled
		loaded.UpdatedAt = s.now().UTC()

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
