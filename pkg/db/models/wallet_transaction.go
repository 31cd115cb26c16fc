package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokri-app/tokri-backend/pkg/enums"
)

// WalletTransaction is an append-only ledger entry. BalanceAfter records the
// wallet balance immediately after this entry was applied; rows are never
// updated or deleted.
type WalletTransaction struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID     uuid.UUID                   `gorm:"column:wallet_id;type:uuid;not null;index"`
	OrderID      *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Type         enums.WalletTransactionType `gorm:"column:type;type:text;not null"`
	Amount       decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null"`
	BalanceAfter decimal.Decimal             `gorm:"column:balance_after;type:numeric(12,2);not null"`
	Description  string                      `gorm:"column:description;not null"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
