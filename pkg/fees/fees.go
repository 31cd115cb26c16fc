// Package fees holds the marketplace's money formulas: delivery pricing,
// rider earnings, taxes, and merchant settlement. All monetary results are
// major currency units rounded to 2 decimal places, half away from zero.
package fees

import (
	"math"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

const (
	baseDeliveryFee  = 20
	perKmDeliveryFee = 5

	basePrepMinutes = 10
	perKmMinutes    = 3

	peakHourMultiplier = "1.5"

	// DefaultTaxRate is the order-level tax applied at checkout.
	DefaultTaxRate = "0.05"
	// DefaultPlatformFeeRate is tokri's cut of a merchant settlement.
	DefaultPlatformFeeRate = "0.02"
	// DefaultGSTRate applies to the platform's services on settlements.
	DefaultGSTRate = "0.18"
)

// billableKm rounds a distance up to the next whole kilometer.
func billableKm(distanceKm float64) int64 {
	if distanceKm <= 0 {
		return 0
	}
	return int64(math.Ceil(distanceKm))
}

// DeliveryFee prices a delivery leg: base fee plus a per-km charge with the
// distance rounded up to the next whole kilometer.
func DeliveryFee(distanceKm float64) decimal.Decimal {
	fee := baseDeliveryFee + billableKm(distanceKm)*perKmDeliveryFee
	return decimal.NewFromInt(fee).Round(2)
}

// EstimatedDeliveryMinutes predicts door-to-door time for a delivery leg.
func EstimatedDeliveryMinutes(distanceKm float64) int {
	return basePrepMinutes + int(billableKm(distanceKm))*perKmMinutes
}

// RiderEarnings is what the rider collects for the leg; peak hours pay 1.5x.
func RiderEarnings(distanceKm float64, isPeakHour bool) decimal.Decimal {
	earnings := DeliveryFee(distanceKm)
	if isPeakHour {
		earnings = earnings.Mul(decimal.RequireFromString(peakHourMultiplier))
	}
	return earnings.Round(2)
}

// Tax applies the default order tax rate.
func Tax(amount decimal.Decimal) decimal.Decimal {
	return TaxAt(amount, decimal.RequireFromString(DefaultTaxRate))
}

// TaxAt applies an explicit tax rate.
func TaxAt(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// Discount computes a percentage discount on the amount.
func Discount(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}

// FinalAmount combines the checkout components. A negative result means the
// discount exceeds what was purchased and is rejected.
func FinalAmount(subtotal, deliveryFee, tax, discount decimal.Decimal) (decimal.Decimal, error) {
	total := subtotal.Add(deliveryFee).Add(tax).Sub(discount).Round(2)
	if total.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInvalidAmount, "final amount cannot be negative")
	}
	return total, nil
}

// PlatformFee is tokri's cut of a settled amount.
func PlatformFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.RequireFromString(DefaultPlatformFeeRate)).Round(2)
}

// GST computes goods-and-services tax on a settled amount.
func GST(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.RequireFromString(DefaultGSTRate)).Round(2)
}

// MerchantSettlement is what the merchant receives after platform fee and GST.
func MerchantSettlement(amount, platformFee, gst decimal.Decimal) decimal.Decimal {
	return amount.Sub(platformFee).Sub(gst).Round(2)
}
