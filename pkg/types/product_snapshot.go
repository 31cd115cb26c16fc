package types

import "github.com/shopspring/decimal"

// ProductSnapshot freezes the product details an order item was sold under.
// It is captured once at order time; historical orders stay untouched when
// the merchant later edits the product.
type ProductSnapshot struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageURL    string          `json:"image_url,omitempty"`
}
