package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"transit-ticketing/internal/logger"
	"transit-ticketing/internal/models"
	"transit-ticketing/internal/money"
	"transit-ticketing/internal/utils"
)

type DBLayer interface {
	CreateBookingWithSeats(ctx context.Context, booking *models.Booking, seats []models.BookingSeat) error
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBookingSeats(ctx context.Context, bookingID string) ([]models.BookingSeat, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string, from []models.BookingStatus, changedBy, reason string) error
}

type CatalogLayer interface {
	GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error)
	GetSeats(ctx context.Context, seatIDs []string) ([]models.Seat, error)
}

type SeatHold interface {
	HoldSeats(scheduleID string, seatIDs []string, bookingID string) (bool, error)
	ReleaseHolds(scheduleID string, seatIDs []string, bookingID string) error
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type Topics struct {
	BookingCreated   string
	BookingCancelled string
}

type Service struct {
	DB         DBLayer
	Catalog    CatalogLayer
	Holds      SeatHold
	Kafka      Publisher
	Logger     *logger.Logger
	Topics     Topics
	serviceFee decimal.Decimal
}

func NewService(db DBLayer, catalog CatalogLayer, holds SeatHold, kafka Publisher, log *logger.Logger, topics Topics, serviceFee decimal.Decimal) *Service {
	return &Service{
		DB:         db,
		Catalog:    catalog,
		Holds:      holds,
		Kafka:      kafka,
		Logger:     log,
		Topics:     topics,
		serviceFee: serviceFee,
	}
}

// ServiceFee exposes the fixed per-booking charge so the payment engine can
// recompute totals from the same constant.
func (s *Service) ServiceFee() decimal.Decimal {
	return s.serviceFee
}

// CreateBooking reserves the requested seats on a schedule for one user.
// Seat claims are conditional writes inside one transaction: concurrent
// requests racing for the same seat get exactly one winner, the rest see
// ErrSeatUnavailable.
func (s *Service) CreateBooking(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error) {
	if len(req.SeatIDs) == 0 {
		return nil, ErrNoSeatsSelected
	}
	if len(req.Passengers) != len(req.SeatIDs) {
		return nil, fmt.Errorf("%w: %d passengers for %d seats", ErrPassengerCountMismatch, len(req.Passengers), len(req.SeatIDs))
	}

	schedule, err := s.Catalog.GetSchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status != models.ScheduleScheduled {
		return nil, fmt.Errorf("%w: schedule %s is %s", ErrScheduleNotBookable, schedule.ID, schedule.Status)
	}

	seats, err := s.Catalog.GetSeats(ctx, req.SeatIDs)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(req.SeatIDs) {
		return nil, fmt.Errorf("%w: %d of %d seats exist", ErrSeatUnavailable, len(seats), len(req.SeatIDs))
	}
	for _, seat := range seats {
		if seat.VehicleID != schedule.VehicleID {
			return nil, fmt.Errorf("%w: seat %s", ErrSeatVehicleMismatch, seat.ID)
		}
	}

	bookingID := utils.GenerateBookingID()

	// Short-lived redis holds bridge seat selection and the DB claim so two
	// users filling in passenger details don't race for the same seats.
	held, err := s.Holds.HoldSeats(schedule.ID, req.SeatIDs, bookingID)
	if err != nil {
		return nil, fmt.Errorf("seat hold error: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("%w: one or more seats are on hold", ErrSeatUnavailable)
	}
	defer func() {
		if err := s.Holds.ReleaseHolds(schedule.ID, req.SeatIDs, bookingID); err != nil {
			s.Logger.Warn("SEAT", fmt.Sprintf("Failed to release holds for booking %s: %v", bookingID, err))
		}
	}()

	total := schedule.Price.Mul(decimal.NewFromInt(int64(len(req.SeatIDs)))).Add(s.serviceFee).Round(2)

	now := time.Now()
	booking := &models.Booking{
		BookingID:       bookingID,
		UserID:          userID,
		ScheduleID:      schedule.ID,
		TotalAmount:     total,
		Status:          models.BookingPending,
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	bookingSeats := make([]models.BookingSeat, len(req.SeatIDs))
	for i, seatID := range req.SeatIDs {
		bookingSeats[i] = models.BookingSeat{
			BookingID:       bookingID,
			SeatID:          seatID,
			PassengerName:   req.Passengers[i].Name,
			PassengerAge:    req.Passengers[i].Age,
			PassengerGender: req.Passengers[i].Gender,
		}
	}

	if err := s.DB.CreateBookingWithSeats(ctx, booking, bookingSeats); err != nil {
		return nil, err
	}

	s.Logger.LogBooking("CREATE", bookingID, fmt.Sprintf("%d seats on schedule %s, total %s", len(req.SeatIDs), schedule.ID, money.Format(total)))
	s.publish(s.Topics.BookingCreated, models.BookingEvent{
		Type:      "booking_created",
		BookingID: bookingID,
		UserID:    userID,
		Booking:   booking,
		Timestamp: now,
	})

	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	booking, err := s.DB.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	return booking, nil
}

func (s *Service) GetBookingSeats(ctx context.Context, bookingID string) ([]models.BookingSeat, error) {
	return s.DB.GetBookingSeats(ctx, bookingID)
}

func (s *Service) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.DB.ListBookingsByUser(ctx, userID)
}

// CancelBooking flips a pending or confirmed booking to cancelled and frees
// its seats. The compare-and-set, the seat release and the history row run
// as one transaction in the store, so a failed cancel leaves nothing behind
// and can always be retried.
func (s *Service) CancelBooking(ctx context.Context, bookingID, userID string) error {
	booking, err := s.DB.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != userID {
		return ErrNotOwner
	}

	err = s.DB.CancelBooking(ctx, bookingID,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		userID, "Cancelled by user")
	if err != nil {
		return err
	}

	s.Logger.LogBooking("CANCEL", bookingID, "booking cancelled, seats released")
	booking.Status = models.BookingCancelled
	s.publish(s.Topics.BookingCancelled, models.BookingEvent{
		Type:      "booking_cancelled",
		BookingID: bookingID,
		UserID:    userID,
		Booking:   booking,
		Timestamp: time.Now(),
	})

	return nil
}

func (s *Service) publish(topic string, event models.BookingEvent) {
	if s.Kafka == nil || topic == "" {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to marshal %s event: %v", event.Type, err))
		return
	}
	if err := s.Kafka.Publish(topic, event.BookingID, value); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (%s): %v", event.Type, err))
	}
}
