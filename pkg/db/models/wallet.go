package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokri-app/tokri-backend/pkg/enums"
)

// Wallet holds settled funds for one merchant or rider.
//
// Invariant: CurrentBalance = TotalEarned - TotalWithdrawn plus manual
// adjustments, and never negative. Replaying the wallet's transactions in
// creation order must reproduce CurrentBalance exactly.
type Wallet struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_wallets_owner"`
	OwnerType      enums.WalletOwnerType `gorm:"column:owner_type;type:text;not null;uniqueIndex:idx_wallets_owner"`
	CurrentBalance decimal.Decimal       `gorm:"column:current_balance;type:numeric(12,2);not null"`
	TotalEarned    decimal.Decimal       `gorm:"column:total_earned;type:numeric(12,2);not null"`
	TotalWithdrawn decimal.Decimal       `gorm:"column:total_withdrawn;type:numeric(12,2);not null"`
	Transactions   []WalletTransaction   `gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
