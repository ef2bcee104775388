package payment

import "errors"

var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrAmountInvalid         = errors.New("payment amount must be positive")
	ErrRefundNotAllowed      = errors.New("payment cannot be refunded")
)
