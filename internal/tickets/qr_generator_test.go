package tickets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-ticketing/internal/models"
	"transit-ticketing/internal/tickets"
)

func confirmedBooking() *models.Booking {
	return &models.Booking{
		BookingID:  "BK1",
		UserID:     "user-1",
		ScheduleID: "sched-1",
		Status:     models.BookingConfirmed,
	}
}

func bookingSeats() []models.BookingSeat {
	return []models.BookingSeat{
		{BookingID: "BK1", SeatID: "seat-1", PassengerName: "Alice", PassengerAge: 30, PassengerGender: models.GenderFemale},
	}
}

func TestGenerateBoardingPass(t *testing.T) {
	gen := tickets.NewGenerator("test-secret-key")

	png, err := gen.GenerateBoardingPass(confirmedBooking(), bookingSeats())
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestGenerateBoardingPass_RequiresConfirmed(t *testing.T) {
	gen := tickets.NewGenerator("test-secret-key")

	for _, status := range []models.BookingStatus{
		models.BookingPending,
		models.BookingCancelled,
	} {
		b := confirmedBooking()
		b.Status = status
		_, err := gen.GenerateBoardingPass(b, bookingSeats())
		assert.ErrorIs(t, err, tickets.ErrBookingNotConfirmed)
	}
}
