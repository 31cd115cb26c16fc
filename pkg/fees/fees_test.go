package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

func TestDeliveryFee(t *testing.T) {
	tests := []struct {
		distanceKm float64
		want       string
	}{
		{0, "20"},
		{0.4, "25"},
		{1, "25"},
		{1.1, "30"},
		{2, "30"},
		{4.9, "45"},
		{10, "70"},
	}
	for _, tt := range tests {
		got := DeliveryFee(tt.distanceKm)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("DeliveryFee(%v) = %s, want %s", tt.distanceKm, got, tt.want)
		}
	}
}

func TestEstimatedDeliveryMinutes(t *testing.T) {
	tests := []struct {
		distanceKm float64
		want       int
	}{
		{0, 10},
		{1, 13},
		{1.1, 16},
		{5, 25},
	}
	for _, tt := range tests {
		if got := EstimatedDeliveryMinutes(tt.distanceKm); got != tt.want {
			t.Fatalf("EstimatedDeliveryMinutes(%v) = %d, want %d", tt.distanceKm, got, tt.want)
		}
	}
}

func TestRiderEarnings(t *testing.T) {
	offPeak := RiderEarnings(2.5, false)
	if !offPeak.Equal(decimal.RequireFromString("35")) {
		t.Fatalf("off-peak earnings = %s, want 35", offPeak)
	}

	peak := RiderEarnings(2.5, true)
	if !peak.Equal(decimal.RequireFromString("52.5")) {
		t.Fatalf("peak earnings = %s, want 52.5", peak)
	}
}

func TestTaxAndDiscountRounding(t *testing.T) {
	tax := Tax(decimal.RequireFromString("180"))
	if !tax.Equal(decimal.RequireFromString("9")) {
		t.Fatalf("Tax(180) = %s, want 9", tax)
	}

	// 0.05 * 199.99 = 9.9995 rounds half away from zero to 10.00.
	tax = Tax(decimal.RequireFromString("199.99"))
	if !tax.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("Tax(199.99) = %s, want 10.00", tax)
	}

	disc := Discount(decimal.RequireFromString("450"), decimal.RequireFromString("12.5"))
	if !disc.Equal(decimal.RequireFromString("56.25")) {
		t.Fatalf("Discount(450, 12.5%%) = %s, want 56.25", disc)
	}
}

func TestFinalAmount(t *testing.T) {
	// Seed order TK2024002: 180 + 20 + 18 - 0 = 218.00.
	total, err := FinalAmount(
		decimal.RequireFromString("180"),
		decimal.RequireFromString("20"),
		decimal.RequireFromString("18"),
		decimal.Zero,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("218.00")) {
		t.Fatalf("final amount = %s, want 218.00", total)
	}
}

func TestFinalAmountRejectsNegative(t *testing.T) {
	_, err := FinalAmount(
		decimal.RequireFromString("50"),
		decimal.Zero,
		decimal.Zero,
		decimal.RequireFromString("75"),
	)
	if err == nil {
		t.Fatal("expected error for negative total")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAmount) {
		t.Fatalf("expected invalid amount code, got %v", err)
	}
}

func TestMerchantSettlement(t *testing.T) {
	amount := decimal.RequireFromString("1000")
	platformFee := PlatformFee(amount)
	gst := GST(amount)

	if !platformFee.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("platform fee = %s, want 20", platformFee)
	}
	if !gst.Equal(decimal.RequireFromString("180")) {
		t.Fatalf("gst = %s, want 180", gst)
	}

	settlement := MerchantSettlement(amount, platformFee, gst)
	if !settlement.Equal(decimal.RequireFromString("800")) {
		t.Fatalf("settlement = %s, want 800", settlement)
	}
}
