package deliveries

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateOtp creates a 4-digit code for pickup or delivery confirmation.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
