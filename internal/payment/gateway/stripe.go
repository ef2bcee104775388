package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"transit-ticketing/internal/logger"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeGateway charges through Stripe payment intents with automatic
// confirmation.
type StripeGateway struct {
	client *client.API
	log    *logger.Logger
}

func NewStripeGateway(log *logger.Logger) (*StripeGateway, error) {
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(stripeKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{client: sc, log: log}, nil
}

func (g *StripeGateway) Name() string { return "Stripe" }

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	// Stripe wants the smallest currency unit.
	amountInCents := req.Amount.Shift(2).IntPart()

	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("payment_id", req.PaymentID)

	intent, err := g.client.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			g.log.Warn("STRIPE", fmt.Sprintf("Charge declined for booking %s: %v", req.BookingID, stripeErr.Msg))
			return &ChargeResult{Approved: false, Reason: stripeErr.Msg}, nil
		}
		g.log.Error("STRIPE", fmt.Sprintf("Charge failed for booking %s: %v", req.BookingID, err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	g.log.Info("STRIPE", fmt.Sprintf("Created payment intent %s for booking %s", intent.ID, req.BookingID))
	return &ChargeResult{
		Approved:      true,
		TransactionID: intent.ID,
	}, nil
}
