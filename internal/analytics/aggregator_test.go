package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
)

func deliveredLeg(distanceKm float64, tookMinutes int) models.Delivery {
	pickup := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	dropoff := pickup.Add(time.Duration(tookMinutes) * time.Minute)
	return models.Delivery{
		ID:           uuid.New(),
		OrderID:      uuid.New(),
		RiderID:      uuid.New(),
		Status:       enums.DeliveryStatusDelivered,
		DistanceKm:   &distanceKm,
		PickupTime:   &pickup,
		DeliveryTime: &dropoff,
	}
}

func TestOnTimeDeliveryRateEmpty(t *testing.T) {
	if got := OnTimeDeliveryRate(nil); got != 0 {
		t.Fatalf("rate = %v, want 0", got)
	}
}

func TestOnTimeDeliveryRate(t *testing.T) {
	// Estimate for 2.4 km is 10 + 3*3 = 19 minutes.
	onTime := deliveredLeg(2.4, 15)
	exactlyOnTime := deliveredLeg(2.4, 19)
	late := deliveredLeg(2.4, 25)
	notDelivered := deliveredLeg(2.4, 15)
	notDelivered.Status = enums.DeliveryStatusOutForDelivery

	incomplete := deliveredLeg(2.4, 15)
	incomplete.DeliveryTime = nil

	noDistance := deliveredLeg(2.4, 15)
	noDistance.DistanceKm = nil

	got := OnTimeDeliveryRate([]models.Delivery{onTime, exactlyOnTime, late, notDelivered, incomplete, noDistance})
	// 2 of the 3 measurable legs were on time.
	want := float64(2) / 3 * 100
	if got != want {
		t.Fatalf("rate = %v, want %v", got, want)
	}
}

func TestDeliverySuccessRate(t *testing.T) {
	cancelled := deliveredLeg(2.4, 15)
	cancelled.Status = enums.DeliveryStatusCancelled
	deliveries := []models.Delivery{
		deliveredLeg(2.4, 15),
		deliveredLeg(1.0, 12),
		deliveredLeg(3.2, 30),
		cancelled,
	}
	if got := DeliverySuccessRate(deliveries); got != 75 {
		t.Fatalf("success rate = %v, want 75", got)
	}
	if got := DeliverySuccessRate(nil); got != 0 {
		t.Fatalf("success rate = %v, want 0", got)
	}
}

func TestPaymentSuccessRate(t *testing.T) {
	payments := []models.Payment{
		{Status: enums.PaymentStatusCompleted},
		{Status: enums.PaymentStatusCompleted},
		{Status: enums.PaymentStatusFailed},
		{Status: enums.PaymentStatusRefunded},
	}
	if got := PaymentSuccessRate(payments); got != 50 {
		t.Fatalf("success rate = %v, want 50", got)
	}
	if got := RefundRate(payments); got != 25 {
		t.Fatalf("refund rate = %v, want 25", got)
	}
}

func TestPaymentRatesEmpty(t *testing.T) {
	if got := PaymentSuccessRate(nil); got != 0 {
		t.Fatalf("success rate = %v, want 0", got)
	}
	if got := RefundRate(nil); got != 0 {
		t.Fatalf("refund rate = %v, want 0", got)
	}
}

func credit(amount string, created time.Time) models.WalletTransaction {
	return models.WalletTransaction{
		ID:        uuid.New(),
		Type:      enums.WalletTransactionTypeCredit,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: created,
	}
}

func TestDailyEarnings(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.WalletTransaction{
		credit("45", day.Add(9*time.Hour)),
		credit("35", day.Add(23*time.Hour+59*time.Minute)),
		credit("99", day.AddDate(0, 0, 1)),
		{
			ID:        uuid.New(),
			Type:      enums.WalletTransactionTypeDebit,
			Amount:    decimal.RequireFromString("20"),
			CreatedAt: day.Add(10 * time.Hour),
		},
	}
	got := DailyEarnings(entries, day)
	if !got.Equal(decimal.RequireFromString("80")) {
		t.Fatalf("daily earnings = %s, want 80", got)
	}
}

func TestWeeklyEarnings(t *testing.T) {
	weekStart := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	entries := []models.WalletTransaction{
		credit("45", weekStart),
		credit("35", weekStart.AddDate(0, 0, 6).Add(12*time.Hour)),
		credit("99", weekStart.AddDate(0, 0, 7)),
		credit("10", weekStart.Add(-time.Minute)),
	}
	got := WeeklyEarnings(entries, weekStart)
	if !got.Equal(decimal.RequireFromString("80")) {
		t.Fatalf("weekly earnings = %s, want 80", got)
	}
}

func TestEarningsEmpty(t *testing.T) {
	if !DailyEarnings(nil, time.Now()).IsZero() {
		t.Fatal("daily earnings of an empty ledger must be zero")
	}
	if !WeeklyEarnings(nil, time.Now()).IsZero() {
		t.Fatal("weekly earnings of an empty ledger must be zero")
	}
}
