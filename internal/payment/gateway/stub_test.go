package gateway_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-ticketing/internal/models"
	"transit-ticketing/internal/payment/gateway"
)

func chargeReq() gateway.ChargeRequest {
	return gateway.ChargeRequest{
		PaymentID: "PAY1",
		BookingID: "BK1",
		Amount:    decimal.RequireFromString("92.00"),
		Method:    models.MethodCreditCard,
	}
}

func TestStub_Approves(t *testing.T) {
	gw := gateway.NewStub(true)

	result, err := gw.Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.True(t, result.Approved)
	assert.NotEmpty(t, result.TransactionID)
}

func TestStub_Declines(t *testing.T) {
	gw := gateway.NewStub(false)

	result, err := gw.Charge(context.Background(), chargeReq())
	require.NoError(t, err)

	// A decline is a normal outcome, not a gateway error.
	assert.False(t, result.Approved)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, result.TransactionID)
}

func TestStub_CancelledContext(t *testing.T) {
	gw := gateway.NewStub(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Charge(ctx, chargeReq())
	assert.ErrorIs(t, err, gateway.ErrGateway)
}
