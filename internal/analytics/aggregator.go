// Package analytics derives operational stats by folding over historical
// orders, deliveries, payments, and ledger entries. All rate functions
// return 0 for empty input.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
	"github.com/tokri-app/tokri-backend/pkg/fees"
)

// OnTimeDeliveryRate is the percentage of delivered legs that arrived within
// the estimate for their distance. Legs missing timing or distance data are
// excluded from both sides of the ratio.
func OnTimeDeliveryRate(deliveries []models.Delivery) float64 {
	var measured, onTime int
	for _, delivery := range deliveries {
		if delivery.Status != enums.DeliveryStatusDelivered {
			continue
		}
		if delivery.PickupTime == nil || delivery.DeliveryTime == nil || delivery.DistanceKm == nil {
			continue
		}
		measured++
		actualMinutes := delivery.DeliveryTime.Sub(*delivery.PickupTime).Minutes()
		if actualMinutes <= float64(fees.EstimatedDeliveryMinutes(*delivery.DistanceKm)) {
			onTime++
		}
	}
	if measured == 0 {
		return 0
	}
	return float64(onTime) / float64(measured) * 100
}

// DeliverySuccessRate is the percentage of legs that ended delivered.
func DeliverySuccessRate(deliveries []models.Delivery) float64 {
	if len(deliveries) == 0 {
		return 0
	}
	var delivered int
	for _, delivery := range deliveries {
		if delivery.Status == enums.DeliveryStatusDelivered {
			delivered++
		}
	}
	return float64(delivered) / float64(len(deliveries)) * 100
}

// PaymentSuccessRate is the percentage of payments that completed.
func PaymentSuccessRate(payments []models.Payment) float64 {
	return paymentRate(payments, enums.PaymentStatusCompleted)
}

// RefundRate is the percentage of payments that ended refunded.
func RefundRate(payments []models.Payment) float64 {
	return paymentRate(payments, enums.PaymentStatusRefunded)
}

func paymentRate(payments []models.Payment, status enums.PaymentStatus) float64 {
	if len(payments) == 0 {
		return 0
	}
	var matched int
	for _, payment := range payments {
		if payment.Status == status {
			matched++
		}
	}
	return float64(matched) / float64(len(payments)) * 100
}

// DailyEarnings sums the credits recorded on the given calendar day (UTC).
// Attribution follows when the entry was recorded, not when the underlying
// order was placed.
func DailyEarnings(entries []models.WalletTransaction, day time.Time) decimal.Decimal {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return earningsBetween(entries, start, start.AddDate(0, 0, 1))
}

// WeeklyEarnings sums the credits recorded in the seven days starting at
// weekStart (truncated to midnight UTC).
func WeeklyEarnings(entries []models.WalletTransaction, weekStart time.Time) decimal.Decimal {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)
	return earningsBetween(entries, start, start.AddDate(0, 0, 7))
}

func earningsBetween(entries []models.WalletTransaction, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		if entry.Type != enums.WalletTransactionTypeCredit {
			continue
		}
		created := entry.CreatedAt.UTC()
		if created.Before(start) || !created.Before(end) {
			continue
		}
		total = total.Add(entry.Amount)
	}
	return total.Round(2)
}
