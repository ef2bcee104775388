package api

import (
	"errors"
	"net/http"

	"transit-ticketing/internal/booking"
	"transit-ticketing/internal/money"
	"transit-ticketing/internal/payment"
	"transit-ticketing/internal/payment/gateway"
)

// statusFor maps the domain error taxonomy onto HTTP status codes. The core
// surfaces structured error kinds; rendering happens here.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrScheduleNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSeatUnavailable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidStateTransition),
		errors.Is(err, payment.ErrRefundNotAllowed):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrScheduleNotBookable),
		errors.Is(err, booking.ErrSeatVehicleMismatch),
		errors.Is(err, booking.ErrPassengerCountMismatch),
		errors.Is(err, booking.ErrNoSeatsSelected),
		errors.Is(err, payment.ErrPaymentMethodRequired),
		errors.Is(err, payment.ErrAmountInvalid),
		errors.Is(err, money.ErrUnparsableAmount):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
