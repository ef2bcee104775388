package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"transit-ticketing/internal/models"
)

// ErrGateway covers transport failures and timeouts talking to the payment
// provider. The attempt is terminal but the booking stays retryable.
var ErrGateway = errors.New("payment gateway error")

type ChargeRequest struct {
	PaymentID string
	BookingID string
	Amount    decimal.Decimal
	Currency  string
	Method    models.PaymentMethod
}

type ChargeResult struct {
	// Approved is false when the provider declined the charge. Declines are
	// normal outcomes, not errors.
	Approved      bool
	TransactionID string
	Reason        string
}

// Gateway is the injectable payment provider. Implementations must honor
// ctx cancellation; the service wraps calls in a request-level timeout.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
