package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokri-app/tokri-backend/pkg/types"
)

// OrderItem captures a purchased line with a frozen product snapshot.
// Rows are written once at order time and never updated.
type OrderItem struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	ProductID *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	Snapshot  types.ProductSnapshot `gorm:"column:snapshot;type:jsonb;serializer:json"`
	Quantity  int                   `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal  decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
