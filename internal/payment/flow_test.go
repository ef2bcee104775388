package payment_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"transit-ticketing/internal/booking"
	bookingdb "transit-ticketing/internal/booking/db"
	bookingredis "transit-ticketing/internal/booking/redis"
	"transit-ticketing/internal/catalog"
	"transit-ticketing/internal/logger"
	"transit-ticketing/internal/models"
	"transit-ticketing/internal/payment"
	paymentdb "transit-ticketing/internal/payment/db"
	"transit-ticketing/internal/payment/gateway"
)

type flowEnv struct {
	bookings *booking.Service
	payments *payment.Service
	bunDB    *bun.DB
	paydb    *paymentdb.DB
}

// setupFlow wires the real stores over in-memory SQLite and miniredis, with
// the deterministic stub gateway, and seeds one schedule with two seats.
func setupFlow(t *testing.T) *flowEnv {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	for _, model := range []interface{}{
		(*models.Schedule)(nil),
		(*models.Seat)(nil),
		(*models.ScheduleSeatAssignment)(nil),
		(*models.Booking)(nil),
		(*models.BookingSeat)(nil),
		(*models.BookingHistory)(nil),
		(*models.Payment)(nil),
		(*models.PaymentHistory)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	catalogDB := &catalog.DB{Bun: bunDB}
	schedule := models.Schedule{
		ID:        "sched-1",
		RouteID:   "route-1",
		VehicleID: "veh-1",
		Price:     decimal.RequireFromString("45.00"),
		Status:    models.ScheduleScheduled,
	}
	_, err = bunDB.NewInsert().Model(&schedule).Exec(ctx)
	require.NoError(t, err)
	seats := []models.Seat{
		{ID: "seat-1", VehicleID: "veh-1", SeatNumber: "1A", SeatType: models.SeatWindow},
		{ID: "seat-2", VehicleID: "veh-1", SeatNumber: "1B", SeatType: models.SeatAisle},
	}
	_, err = bunDB.NewInsert().Model(&seats).Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, catalogDB.EnsureAssignments(ctx, "sched-1"))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	log := logger.NewLogger()
	fee := decimal.RequireFromString("2.00")
	bdb := &bookingdb.DB{Bun: bunDB}
	pdb := &paymentdb.DB{Bun: bunDB}

	bookings := booking.NewService(bdb, catalogDB,
		bookingredis.NewHolds(redisClient, time.Minute), nil, log, booking.Topics{}, fee)
	payments := payment.NewService(pdb, bdb, catalogDB, gateway.NewStub(true), nil, log,
		payment.Topics{}, fee, time.Second)

	return &flowEnv{bookings: bookings, payments: payments, bunDB: bunDB, paydb: pdb}
}

func (e *flowEnv) availableSeats(t *testing.T) int {
	t.Helper()
	count, err := (&catalog.DB{Bun: e.bunDB}).CountAvailableSeats(context.Background(), "sched-1")
	require.NoError(t, err)
	return count
}

func TestBookPayRefundFlow(t *testing.T) {
	env := setupFlow(t)
	ctx := context.Background()

	// Book both seats: 2 * 45.00 + 2.00 service fee.
	b, err := env.bookings.CreateBooking(ctx, "user-1", models.BookingRequest{
		ScheduleID: "sched-1",
		SeatIDs:    []string{"seat-1", "seat-2"},
		Passengers: []models.Passenger{
			{Name: "Alice", Age: 30, Gender: models.GenderFemale},
			{Name: "Bob", Age: 34, Gender: models.GenderMale},
		},
	})
	require.NoError(t, err)
	assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("92.00")))
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, 0, env.availableSeats(t))

	// A second user cannot take a claimed seat.
	_, err = env.bookings.CreateBooking(ctx, "user-2", models.BookingRequest{
		ScheduleID: "sched-1",
		SeatIDs:    []string{"seat-1"},
		Passengers: []models.Passenger{{Name: "Eve", Age: 28, Gender: models.GenderFemale}},
	})
	assert.ErrorIs(t, err, booking.ErrSeatUnavailable)

	// Pay: payment completes and the booking confirms.
	p, err := env.payments.ProcessPayment(ctx, b.BookingID, "user-1", models.MethodCreditCard)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.Status)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("92.00")))

	confirmed, err := env.bookings.GetBooking(ctx, b.BookingID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	// Paying again returns the same payment untouched.
	again, err := env.payments.ProcessPayment(ctx, b.BookingID, "user-1", models.MethodWallet)
	require.NoError(t, err)
	assert.Equal(t, p.PaymentID, again.PaymentID)
	assert.Equal(t, models.PaymentCompleted, again.Status)

	// Refund: full amount back, booking cancelled, seats free again.
	require.NoError(t, env.payments.Refund(ctx, p.PaymentID, "user-1", "plans changed"))

	refunded, err := env.payments.GetPayment(ctx, p.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, refunded.Status)
	assert.True(t, refunded.RefundAmount.Equal(decimal.RequireFromString("92.00")))

	cancelled, err := env.bookings.GetBooking(ctx, b.BookingID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, 2, env.availableSeats(t))

	// Refunded is terminal.
	err = env.payments.Refund(ctx, p.PaymentID, "user-1", "again")
	assert.ErrorIs(t, err, payment.ErrRefundNotAllowed)

	// The freed seats are immediately bookable by someone else.
	_, err = env.bookings.CreateBooking(ctx, "user-2", models.BookingRequest{
		ScheduleID: "sched-1",
		SeatIDs:    []string{"seat-1"},
		Passengers: []models.Passenger{{Name: "Eve", Age: 28, Gender: models.GenderFemale}},
	})
	require.NoError(t, err)
}

func TestDeclinedPaymentKeepsBookingRetryable(t *testing.T) {
	env := setupFlow(t)
	ctx := context.Background()

	// Swap in a declining gateway for the first attempt.
	declining := gateway.NewStub(false)
	env.payments.Gateway = declining

	b, err := env.bookings.CreateBooking(ctx, "user-1", models.BookingRequest{
		ScheduleID: "sched-1",
		SeatIDs:    []string{"seat-1"},
		Passengers: []models.Passenger{{Name: "Alice", Age: 30, Gender: models.GenderFemale}},
	})
	require.NoError(t, err)

	p, err := env.payments.ProcessPayment(ctx, b.BookingID, "user-1", models.MethodCreditCard)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, p.Status)

	still, err := env.bookings.GetBooking(ctx, b.BookingID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, still.Status)

	// Retry with an approving gateway reuses the same payment row.
	env.payments.Gateway = gateway.NewStub(true)
	retried, err := env.payments.ProcessPayment(ctx, b.BookingID, "user-1", models.MethodCreditCard)
	require.NoError(t, err)
	assert.Equal(t, p.PaymentID, retried.PaymentID)
	assert.Equal(t, models.PaymentCompleted, retried.Status)

	history, err := env.paydb.ListHistory(ctx, p.PaymentID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(history), 3) // processing, failed, retry, completed
}
