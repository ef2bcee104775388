package booking

import "errors"

var (
	ErrScheduleNotFound       = errors.New("schedule not found")
	ErrScheduleNotBookable    = errors.New("schedule is not open for booking")
	ErrSeatUnavailable        = errors.New("seat is not available")
	ErrSeatVehicleMismatch    = errors.New("seat does not belong to the schedule's vehicle")
	ErrPassengerCountMismatch = errors.New("passenger count does not match seat count")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrNotOwner               = errors.New("booking belongs to another user")
	ErrNoSeatsSelected        = errors.New("at least one seat must be selected")
)
