package enums

import "fmt"

// WalletOwnerType distinguishes which side of the marketplace owns a wallet.
type WalletOwnerType string

const (
	WalletOwnerTypeMerchant WalletOwnerType = "merchant"
	WalletOwnerTypeRider    WalletOwnerType = "rider"
)

var validWalletOwnerTypes = []WalletOwnerType{
	WalletOwnerTypeMerchant,
	WalletOwnerTypeRider,
}

// String implements fmt.Stringer.
func (w WalletOwnerType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletOwnerType.
func (w WalletOwnerType) IsValid() bool {
	for _, candidate := range validWalletOwnerTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletOwnerType converts raw input into a WalletOwnerType.
func ParseWalletOwnerType(value string) (WalletOwnerType, error) {
	for _, candidate := range validWalletOwnerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet owner type %q", value)
}

// WalletTransactionType is the direction of a ledger entry.
type WalletTransactionType string

const (
	WalletTransactionTypeCredit WalletTransactionType = "credit"
	WalletTransactionTypeDebit  WalletTransactionType = "debit"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeCredit,
	WalletTransactionTypeDebit,
}

// String implements fmt.Stringer.
func (w WalletTransactionType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
