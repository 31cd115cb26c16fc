package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokri-app/tokri-backend/pkg/enums"
)

// Delivery is the rider-facing leg of an order, one per order.
//
// PickupOtp and DeliveryOtp are 4-digit codes generated at creation; the
// rider must present them to advance the status. DistanceKm stays nil until
// merchant and drop coordinates have been resolved.
type Delivery struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID            `gorm:"column:order_id;type:uuid;uniqueIndex;not null"`
	RiderID          uuid.UUID            `gorm:"column:rider_id;type:uuid;not null"`
	Status           enums.DeliveryStatus `gorm:"column:status;type:text;not null;default:'assigned'"`
	PickupOtp        string               `gorm:"column:pickup_otp;type:char(4);not null"`
	DeliveryOtp      string               `gorm:"column:delivery_otp;type:char(4);not null"`
	ProofPhotoURL    *string              `gorm:"column:proof_photo_url"`
	PickupLat        float64              `gorm:"column:pickup_lat;not null"`
	PickupLng        float64              `gorm:"column:pickup_lng;not null"`
	DropLat          float64              `gorm:"column:drop_lat;not null"`
	DropLng          float64              `gorm:"column:drop_lng;not null"`
	DistanceKm       *float64             `gorm:"column:distance_km"`
	DeliveryFee      decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	EstimatedMinutes int                  `gorm:"column:estimated_minutes;not null"`
	PickupTime       *time.Time           `gorm:"column:pickup_time"`
	DeliveryTime     *time.Time           `gorm:"column:delivery_time"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
