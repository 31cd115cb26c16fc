package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokri-app/tokri-backend/pkg/enums"
)

// Order is a customer's purchase from a single merchant.
//
// Monetary fields are major currency units (rupees) with 2 decimal places.
// FinalAmount = TotalAmount + DeliveryFee + TaxAmount - DiscountAmount.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber    string              `gorm:"column:order_number;uniqueIndex;not null"`
	CustomerID     uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	MerchantID     uuid.UUID           `gorm:"column:merchant_id;type:uuid;not null"`
	Status         enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending_confirmation'"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	TotalAmount    decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	FinalAmount    decimal.Decimal     `gorm:"column:final_amount;type:numeric(12,2);not null"`
	Notes          *string             `gorm:"column:notes"`
	DeliveredAt    *time.Time          `gorm:"column:delivered_at"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Delivery       *Delivery           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment        *Payment            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
