package wallets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
	"github.com/tokri-app/tokri-backend/pkg/fees"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type entityLocker interface {
	Acquire(ctx context.Context, kind, id string) (release func(), acquired bool, err error)
}

const lockKind = "wallet"

// Service defines wallet and ledger operations.
type Service interface {
	EnsureWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.WalletTransaction, error)
	CreditDeliveryEarnings(ctx context.Context, riderID uuid.UUID, delivery *models.Delivery, isPeakHour bool) (*models.WalletTransaction, error)
	CreditMerchantSettlement(ctx context.Context, merchantID uuid.UUID, order *models.Order) (*models.WalletTransaction, error)
	Audit(ctx context.Context, walletID uuid.UUID) error
}

type service struct {
	repo  Repository
	tx    txRunner
	locks entityLocker
	now   func() time.Time
}

// NewService builds a wallet service with the required dependencies.
func NewService(repo Repository, tx txRunner, locks entityLocker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallets repository required")
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

func (s *service) EnsureWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if !ownerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown wallet owner type %q", ownerType))
	}

	wallet, err := s.repo.FindByOwner(ctx, ownerID, ownerType)
	if err == nil {
		return wallet, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	wallet = &models.Wallet{
		OwnerID:        ownerID,
		OwnerType:      ownerType,
		CurrentBalance: decimal.Zero,
		TotalEarned:    decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateWallet(ctx, wallet)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
	}
	return wallet, nil
}

// RecordTransactionInput is one ledger mutation. Amount is always positive;
// Type carries the direction.
type RecordTransactionInput struct {
	WalletID    uuid.UUID
	Amount      decimal.Decimal
	Type        enums.WalletTransactionType
	Description string
	OrderID     *uuid.UUID
}

// RecordTransaction appends a ledger entry and moves the wallet balance in
// the same storage transaction, so the ledger and the balance can never
// drift apart. A debit that would take the balance below zero is rejected
// and leaves the wallet untouched.
func (s *service) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.WalletTransaction, error) {
	if input.WalletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown transaction type %q", input.Type))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "transaction amount must be positive")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction description required")
	}

	release, acquired, err := s.locks.Acquire(ctx, lockKind, input.WalletID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire wallet lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet is being updated by another request")
	}
	defer release()

	amount := input.Amount.Round(2)
	var entry *models.WalletTransaction
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := repo.FindByIDForUpdate(ctx, input.WalletID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}

		var balanceAfter decimal.Decimal
		switch input.Type {
		case enums.WalletTransactionTypeCredit:
			balanceAfter = wallet.CurrentBalance.Add(amount)
			wallet.TotalEarned = wallet.TotalEarned.Add(amount)
		case enums.WalletTransactionTypeDebit:
			balanceAfter = wallet.CurrentBalance.Sub(amount)
			if balanceAfter.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "debit exceeds wallet balance").
					WithDetails(map[string]any{
						"balance":   wallet.CurrentBalance,
						"requested": amount,
					})
			}
			wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(amount)
		}

		wallet.CurrentBalance = balanceAfter
		wallet.UpdatedAt = s.now().UTC()

		entry = &models.WalletTransaction{
			WalletID:     wallet.ID,
			OrderID:      input.OrderID,
			Type:         input.Type,
			Amount:       amount,
			BalanceAfter: balanceAfter,
			Description:  input.Description,
		}
		if err := repo.AppendTransaction(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}
		if err := repo.SaveWallet(ctx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditDeliveryEarnings pays a rider for a completed leg.
func (s *service) CreditDeliveryEarnings(ctx context.Context, riderID uuid.UUID, delivery *models.Delivery, isPeakHour bool) (*models.WalletTransaction, error) {
	if delivery == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery required")
	}
	if delivery.Status != enums.DeliveryStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "earnings are credited only for delivered legs")
	}
	if delivery.DistanceKm == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery distance not computed")
	}

	wallet, err := s.EnsureWallet(ctx, riderID, enums.WalletOwnerTypeRider)
	if err != nil {
		return nil, err
	}
	return s.RecordTransaction(ctx, RecordTransactionInput{
		WalletID:    wallet.ID,
		Amount:      fees.RiderEarnings(*delivery.DistanceKm, isPeakHour),
		Type:        enums.WalletTransactionTypeCredit,
		Description: fmt.Sprintf("delivery earnings for order %s", delivery.OrderID),
		OrderID:     &delivery.OrderID,
	})
}

// CreditMerchantSettlement pays a merchant their share of a delivered order,
// net of the platform fee and GST.
func (s *service) CreditMerchantSettlement(ctx context.Context, merchantID uuid.UUID, order *models.Order) (*models.WalletTransaction, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "settlement runs only for delivered orders")
	}

	amount := order.TotalAmount
	settlement := fees.MerchantSettlement(amount, fees.PlatformFee(amount), fees.GST(amount))
	if !settlement.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "settlement amount must be positive")
	}

	wallet, err := s.EnsureWallet(ctx, merchantID, enums.WalletOwnerTypeMerchant)
	if err != nil {
		return nil, err
	}
	return s.RecordTransaction(ctx, RecordTransactionInput{
		WalletID:    wallet.ID,
		Amount:      settlement,
		Type:        enums.WalletTransactionTypeCredit,
		Description: fmt.Sprintf("settlement for order %s", order.OrderNumber),
		OrderID:     &order.ID,
	})
}
