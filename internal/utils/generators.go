package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GenerateBookingID creates a short human-readable booking reference,
// e.g. "BK3F9A21CD".
func GenerateBookingID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BK" + id[:8]
}

// GeneratePaymentID creates an external payment id, e.g. "PAY7C20E4B1".
func GeneratePaymentID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "PAY" + id[:8]
}

// GenerateTransactionID creates a gateway transaction reference.
func GenerateTransactionID() string {
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(900000))
	return fmt.Sprintf("TXN%06d", randomNum.Int64()+100000)
}
