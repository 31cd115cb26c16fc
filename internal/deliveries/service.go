package deliveries

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
	"github.com/tokri-app/tokri-backend/pkg/fees"
	"github.com/tokri-app/tokri-backend/pkg/geo"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type entityLocker interface {
	Acquire(ctx context.Context, kind, id string) (release func(), acquired bool, err error)
}

const lockKind = "delivery"

// Service defines delivery lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateDeliveryInput) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, deliveryID uuid.UUID, req UpdateRequest) (*models.Delivery, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	locks entityLocker
	now   func() time.Time
}

// NewService builds a delivery service with the required dependencies.
func NewService(repo Repository, tx txRunner, locks entityLocker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
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

// CreateDeliveryInput assigns a rider to an order with the pickup and drop
// coordinates in degrees.
type CreateDeliveryInput struct {
	OrderID   uuid.UUID
	RiderID   uuid.UUID
	PickupLat float64
	PickupLng float64
	DropLat   float64
	DropLng   float64
}

func (s *service) Create(ctx context.Context, input CreateDeliveryInput) (*models.Delivery, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.RiderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}

	pickupOtp, err := generateOtp()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pickup otp")
	}
	deliveryOtp, err := generateOtp()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery otp")
	}

	distance := geo.HaversineDistanceKm(input.PickupLat, input.PickupLng, input.DropLat, input.DropLng)
	delivery := &models.Delivery{
		OrderID:          input.OrderID,
		RiderID:          input.RiderID,
		Status:           enums.DeliveryStatusAssigned,
		PickupOtp:        pickupOtp,
		DeliveryOtp:      deliveryOtp,
		PickupLat:        input.PickupLat,
		PickupLng:        input.PickupLng,
		DropLat:          input.DropLat,
		DropLng:          input.DropLng,
		DistanceKm:       &distance,
		DeliveryFee:      fees.DeliveryFee(distance),
		EstimatedMinutes: fees.EstimatedDeliveryMinutes(distance),
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, delivery)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
	}
	return delivery, nil
}

func (s *service) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, req UpdateRequest) (*models.Delivery, error) {
	if deliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	if err := ValidateUpdate(req); err != nil {
		return nil, err
	}
	next, err := enums.ParseDeliveryStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	release, acquired, err := s.locks.Acquire(ctx, lockKind, deliveryID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire delivery lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "delivery is being updated by another request")
	}
	defer release()

	var delivery *models.Delivery
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, deliveryID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
		}

		if !CanTransition(loaded.Status, next) {
			return invalidTransition(loaded.Status, next)
		}

		switch next {
		case enums.DeliveryStatusPickedUp:
			if !otpMatches(loaded.PickupOtp, req.PickupOtp) {
				return pkgerrors.New(pkgerrors.CodeValidation, "pickup otp does not match")
			}
		case enums.DeliveryStatusDelivered:
			if !otpMatches(loaded.DeliveryOtp, req.DeliveryOtp) {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivery otp does not match")
			}
		}

		now := s.now().UTC()
		loaded.Status = next
		loaded.UpdatedAt = now
		switch next {
		case enums.DeliveryStatusPickedUp:
			if loaded.PickupTime == nil {
				loaded.PickupTime = &now
			}
		case enums.DeliveryStatusDelivered:
			if loaded.DeliveryTime == nil {
				loaded.DeliveryTime = &now
			}
			proof := req.ProofPhotoURL
			loaded.ProofPhotoURL = &proof
		}

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery")
		}
		delivery = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

func otpMatches(expected, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
