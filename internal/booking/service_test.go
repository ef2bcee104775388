package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"transit-ticketing/internal/booking"
	"transit-ticketing/internal/logger"
	"transit-ticketing/internal/models"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateBookingWithSeats(ctx context.Context, b *models.Booking, seats []models.BookingSeat) error {
	args := m.Called(ctx, b, seats)
	return args.Error(0)
}

func (m *MockDBLayer) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockDBLayer) GetBookingSeats(ctx context.Context, bookingID string) ([]models.BookingSeat, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookingSeat), args.Error(1)
}

func (m *MockDBLayer) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) CancelBooking(ctx context.Context, bookingID string, from []models.BookingStatus, changedBy, reason string) error {
	args := m.Called(ctx, bookingID, from, changedBy, reason)
	return args.Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Schedule), args.Error(1)
}

func (m *MockCatalog) GetSeats(ctx context.Context, seatIDs []string) ([]models.Seat, error) {
	args := m.Called(ctx, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Seat), args.Error(1)
}

type MockSeatHold struct {
	mock.Mock
}

func (m *MockSeatHold) HoldSeats(scheduleID string, seatIDs []string, bookingID string) (bool, error) {
	args := m.Called(scheduleID, seatIDs, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatHold) ReleaseHolds(scheduleID string, seatIDs []string, bookingID string) error {
	args := m.Called(scheduleID, seatIDs, bookingID)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, key string, value []byte) error {
	args := m.Called(topic, key, value)
	return args.Error(0)
}

func newTestService(db *MockDBLayer, cat *MockCatalog, holds *MockSeatHold, pub *MockPublisher) *booking.Service {
	return booking.NewService(db, cat, holds, pub, logger.NewLogger(),
		booking.Topics{BookingCreated: "booking-created", BookingCancelled: "booking-cancelled"},
		decimal.RequireFromString("2.00"))
}

func testSchedule() *models.Schedule {
	return &models.Schedule{
		ID:        "sched-1",
		RouteID:   "route-1",
		VehicleID: "veh-1",
		Price:     decimal.RequireFromString("45.00"),
		Status:    models.ScheduleScheduled,
	}
}

func testRequest() models.BookingRequest {
	return models.BookingRequest{
		ScheduleID: "sched-1",
		SeatIDs:    []string{"seat-1", "seat-2"},
		Passengers: []models.Passenger{
			{Name: "Alice", Age: 30, Gender: models.GenderFemale},
			{Name: "Bob", Age: 34, Gender: models.GenderMale},
		},
	}
}

func TestCreateBooking_ComputesTotal(t *testing.T) {
	db := new(MockDBLayer)
	cat := new(MockCatalog)
	holds := new(MockSeatHold)
	pub := new(MockPublisher)
	svc := newTestService(db, cat, holds, pub)

	req := testRequest()

	cat.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(), nil)
	cat.On("GetSeats", mock.Anything, req.SeatIDs).Return([]models.Seat{
		{ID: "seat-1", VehicleID: "veh-1", SeatNumber: "1A"},
		{ID: "seat-2", VehicleID: "veh-1", SeatNumber: "1B"},
	}, nil)
	holds.On("HoldSeats", "sched-1", req.SeatIDs, mock.Anything).Return(true, nil)
	holds.On("ReleaseHolds", "sched-1", req.SeatIDs, mock.Anything).Return(nil)
	db.On("CreateBookingWithSeats", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", "booking-created", mock.Anything, mock.Anything).Return(nil)

	b, err := svc.CreateBooking(context.Background(), "user-1", req)
	require.NoError(t, err)

	// 2 seats * 45.00 + 2.00 service fee
	assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("92.00")),
		"expected 92.00, got %s", b.TotalAmount)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, "user-1", b.UserID)
	assert.NotEmpty(t, b.BookingID)

	db.AssertExpectations(t)
	holds.AssertExpectations(t)
}

func TestCreateBooking_PassengerCountMismatch(t *testing.T) {
	svc := newTestService(new(MockDBLayer), new(MockCatalog), new(MockSeatHold), new(MockPublisher))

	req := testRequest()
	req.Passengers = req.Passengers[:1]

	_, err := svc.CreateBooking(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, booking.ErrPassengerCountMismatch)
}

func TestCreateBooking_NoSeats(t *testing.T) {
	svc := newTestService(new(MockDBLayer), new(MockCatalog), new(MockSeatHold), new(MockPublisher))

	req := testRequest()
	req.SeatIDs = nil
	req.Passengers = nil

	_, err := svc.CreateBooking(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, booking.ErrNoSeatsSelected)
}

func TestCreateBooking_ScheduleNotBookable(t *testing.T) {
	db := new(MockDBLayer)
	cat := new(MockCatalog)
	svc := newTestService(db, cat, new(MockSeatHold), new(MockPublisher))

	cancelled := testSchedule()
	cancelled.Status = models.ScheduleCancelled
	cat.On("GetSchedule", mock.Anything, "sched-1").Return(cancelled, nil)

	_, err := svc.CreateBooking(context.Background(), "user-1", testRequest())
	assert.ErrorIs(t, err, booking.ErrScheduleNotBookable)
	db.AssertNotCalled(t, "CreateBookingWithSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBooking_SeatOnWrongVehicle(t *testing.T) {
	cat := new(MockCatalog)
	svc := newTestService(new(MockDBLayer), cat, new(MockSeatHold), new(MockPublisher))

	req := testRequest()
	cat.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(), nil)
	cat.On("GetSeats", mock.Anything, req.SeatIDs).Return([]models.Seat{
		{ID: "seat-1", VehicleID: "veh-1", SeatNumber: "1A"},
		{ID: "seat-2", VehicleID: "veh-OTHER", SeatNumber: "1B"},
	}, nil)

	_, err := svc.CreateBooking(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, booking.ErrSeatVehicleMismatch)
}

func TestCreateBooking_HoldContention(t *testing.T) {
	db := new(MockDBLayer)
	cat := new(MockCatalog)
	holds := new(MockSeatHold)
	svc := newTestService(db, cat, holds, new(MockPublisher))

	req := testRequest()
	cat.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(), nil)
	cat.On("GetSeats", mock.Anything, req.SeatIDs).Return([]models.Seat{
		{ID: "seat-1", VehicleID: "veh-1"},
		{ID: "seat-2", VehicleID: "veh-1"},
	}, nil)
	holds.On("HoldSeats", "sched-1", req.SeatIDs, mock.Anything).Return(false, nil)

	_, err := svc.CreateBooking(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, booking.ErrSeatUnavailable)
	db.AssertNotCalled(t, "CreateBookingWithSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBooking_SeatClaimLost(t *testing.T) {
	db := new(MockDBLayer)
	cat := new(MockCatalog)
	holds := new(MockSeatHold)
	svc := newTestService(db, cat, holds, new(MockPublisher))

	req := testRequest()
	cat.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(), nil)
	cat.On("GetSeats", mock.Anything, req.SeatIDs).Return([]models.Seat{
		{ID: "seat-1", VehicleID: "veh-1"},
		{ID: "seat-2", VehicleID: "veh-1"},
	}, nil)
	holds.On("HoldSeats", "sched-1", req.SeatIDs, mock.Anything).Return(true, nil)
	holds.On("ReleaseHolds", "sched-1", req.SeatIDs, mock.Anything).Return(nil)
	db.On("CreateBookingWithSeats", mock.Anything, mock.Anything, mock.Anything).
		Return(booking.ErrSeatUnavailable)

	_, err := svc.CreateBooking(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, booking.ErrSeatUnavailable)
	// Holds must be released even when the DB claim fails.
	holds.AssertCalled(t, "ReleaseHolds", "sched-1", req.SeatIDs, mock.Anything)
}

func TestGetBooking_OwnerCheck(t *testing.T) {
	db := new(MockDBLayer)
	svc := newTestService(db, new(MockCatalog), new(MockSeatHold), new(MockPublisher))

	db.On("GetBooking", mock.Anything, "BK1").Return(&models.Booking{
		BookingID: "BK1",
		UserID:    "user-1",
		Status:    models.BookingPending,
	}, nil)

	_, err := svc.GetBooking(context.Background(), "BK1", "someone-else")
	assert.ErrorIs(t, err, booking.ErrNotOwner)

	b, err := svc.GetBooking(context.Background(), "BK1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "BK1", b.BookingID)
}

func TestCancelBooking_ReleasesSeatsAndPublishes(t *testing.T) {
	db := new(MockDBLayer)
	pub := new(MockPublisher)
	svc := newTestService(db, new(MockCatalog), new(MockSeatHold), pub)

	db.On("GetBooking", mock.Anything, "BK1").Return(&models.Booking{
		BookingID: "BK1",
		UserID:    "user-1",
		Status:    models.BookingConfirmed,
		CreatedAt: time.Now(),
	}, nil)
	db.On("CancelBooking", mock.Anything, "BK1",
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		"user-1", "Cancelled by user").Return(nil)
	pub.On("Publish", "booking-cancelled", "BK1", mock.Anything).Return(nil)

	err := svc.CancelBooking(context.Background(), "BK1", "user-1")
	require.NoError(t, err)

	db.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	db := new(MockDBLayer)
	svc := newTestService(db, new(MockCatalog), new(MockSeatHold), new(MockPublisher))

	db.On("GetBooking", mock.Anything, "BK1").Return(&models.Booking{
		BookingID: "BK1",
		UserID:    "user-1",
		Status:    models.BookingCancelled,
	}, nil)
	db.On("CancelBooking", mock.Anything, "BK1", mock.Anything, mock.Anything, mock.Anything).
		Return(booking.ErrInvalidStateTransition)

	err := svc.CancelBooking(context.Background(), "BK1", "user-1")
	assert.ErrorIs(t, err, booking.ErrInvalidStateTransition)
}

func TestCancelBooking_FailedCancelStaysRetryable(t *testing.T) {
	db := new(MockDBLayer)
	pub := new(MockPublisher)
	svc := newTestService(db, new(MockCatalog), new(MockSeatHold), pub)

	db.On("GetBooking", mock.Anything, "BK1").Return(&models.Booking{
		BookingID: "BK1",
		UserID:    "user-1",
		Status:    models.BookingConfirmed,
	}, nil)

	// The transactional cancel fails as a whole, so the booking is left in
	// its prior state and the same call succeeds on retry.
	db.On("CancelBooking", mock.Anything, "BK1", mock.Anything, "user-1", mock.Anything).
		Return(errors.New("failed to release seats for booking BK1: disk I/O error")).Once()
	db.On("CancelBooking", mock.Anything, "BK1", mock.Anything, "user-1", mock.Anything).
		Return(nil).Once()
	pub.On("Publish", "booking-cancelled", "BK1", mock.Anything).Return(nil)

	err := svc.CancelBooking(context.Background(), "BK1", "user-1")
	require.Error(t, err)
	pub.AssertNotCalled(t, "Publish", "booking-cancelled", "BK1", mock.Anything)

	err = svc.CancelBooking(context.Background(), "BK1", "user-1")
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestCancelBooking_NotOwner(t *testing.T) {
	db := new(MockDBLayer)
	svc := newTestService(db, new(MockCatalog), new(MockSeatHold), new(MockPublisher))

	db.On("GetBooking", mock.Anything, "BK1").Return(&models.Booking{
		BookingID: "BK1",
		UserID:    "user-1",
	}, nil)

	err := svc.CancelBooking(context.Background(), "BK1", "intruder")
	assert.ErrorIs(t, err, booking.ErrNotOwner)
	db.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
