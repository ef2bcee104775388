package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"transit-ticketing/internal/booking"
	"transit-ticketing/internal/logger"
	"transit-ticketing/internal/models"
	"transit-ticketing/internal/money"
	"transit-ticketing/internal/payment/gateway"
	"transit-ticketing/internal/utils"
)

type Store interface {
	CreatePayment(ctx context.Context, p *models.Payment) (bool, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	GetPaymentByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error
	MarkRefunded(ctx context.Context, paymentID, reason string) error
	AppendHistory(ctx context.Context, entry models.PaymentHistory) error
}

type BookingStore interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBookingSeats(ctx context.Context, bookingID string) ([]models.BookingSeat, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus) error
	CancelBooking(ctx context.Context, bookingID string, from []models.BookingStatus, changedBy, reason string) error
	AppendHistory(ctx context.Context, entry models.BookingHistory) error
}

type ScheduleReader interface {
	GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error)
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type Topics struct {
	PaymentCompleted string
	PaymentFailed    string
	PaymentRefunded  string
}

type Service struct {
	Payments       Store
	Bookings       BookingStore
	Catalog        ScheduleReader
	Gateway        gateway.Gateway
	Kafka          Publisher
	Logger         *logger.Logger
	Topics         Topics
	serviceFee     decimal.Decimal
	gatewayTimeout time.Duration
}

func NewService(payments Store, bookings BookingStore, catalog ScheduleReader, gw gateway.Gateway, kafka Publisher, log *logger.Logger, topics Topics, serviceFee decimal.Decimal, gatewayTimeout time.Duration) *Service {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 10 * time.Second
	}
	return &Service{
		Payments:       payments,
		Bookings:       bookings,
		Catalog:        catalog,
		Gateway:        gw,
		Kafka:          kafka,
		Logger:         log,
		Topics:         topics,
		serviceFee:     serviceFee,
		gatewayTimeout: gatewayTimeout,
	}
}

// ProcessPayment drives a booking's payment through the status machine:
// pending -> processing -> completed or failed, with failed -> processing as
// the retry path. A booking has at most one payment row; repeat calls return
// the existing payment instead of charging again.
func (s *Service) ProcessPayment(ctx context.Context, bookingID, userID string, method models.PaymentMethod) (*models.Payment, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrPaymentMethodRequired, method)
	}

	b, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, booking.ErrNotOwner
	}
	if b.Status == models.BookingCancelled {
		return nil, fmt.Errorf("%w: booking %s is cancelled", booking.ErrInvalidStateTransition, bookingID)
	}

	existing, err := s.Payments.GetPaymentByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var p *models.Payment
	switch {
	case existing == nil:
		amount, err := s.deriveAmount(ctx, b)
		if err != nil {
			return nil, err
		}

		p = &models.Payment{
			PaymentID: utils.GeneratePaymentID(),
			BookingID: bookingID,
			Amount:    amount,
			Method:    method,
			Status:    models.PaymentProcessing,
			Gateway:   s.Gateway.Name(),
			CreatedAt: time.Now(),
		}
		created, err := s.Payments.CreatePayment(ctx, p)
		if err != nil {
			return nil, err
		}
		if !created {
			// Lost the insert race; apply the existing-payment rules instead.
			return s.ProcessPayment(ctx, bookingID, userID, method)
		}
		s.appendHistory(ctx, p.PaymentID, userID, "Payment processing", "Payment processing")

	case existing.Status == models.PaymentCompleted:
		s.Logger.LogPayment("SKIP", existing.PaymentID, "payment already completed")
		return existing, nil

	case existing.Status == models.PaymentPending || existing.Status == models.PaymentProcessing:
		s.Logger.LogPayment("SKIP", existing.PaymentID, "payment attempt already in flight")
		return existing, nil

	case existing.Status == models.PaymentRefunded:
		return nil, fmt.Errorf("%w: payment %s already refunded", booking.ErrInvalidStateTransition, existing.PaymentID)

	default: // failed: reopen the same row for retry
		existing.Method = method
		existing.Status = models.PaymentProcessing
		existing.Gateway = s.Gateway.Name()
		if err := s.Payments.UpdatePayment(ctx, existing); err != nil {
			return nil, err
		}
		p = existing
		s.appendHistory(ctx, p.PaymentID, userID, "Payment processing", "Retry after failure")
	}

	return s.charge(ctx, p, b, userID)
}

func (s *Service) charge(ctx context.Context, p *models.Payment, b *models.Booking, userID string) (*models.Payment, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	result, err := s.Gateway.Charge(chargeCtx, gateway.ChargeRequest{
		PaymentID: p.PaymentID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Method:    p.Method,
	})
	if err != nil {
		// Transport failure or timeout: this attempt is dead but the booking
		// stays retryable.
		s.fail(ctx, p, userID, err.Error())
		return p, fmt.Errorf("%w: %v", gateway.ErrGateway, err)
	}

	if !result.Approved {
		s.fail(ctx, p, userID, result.Reason)
		return p, nil
	}

	p.Status = models.PaymentCompleted
	p.TransactionID = result.TransactionID
	if err := s.Payments.UpdatePayment(ctx, p); err != nil {
		return nil, err
	}
	s.appendHistory(ctx, p.PaymentID, userID, "Payment completed", "Gateway approved charge")

	if err := s.Bookings.UpdateBookingStatus(ctx, p.BookingID,
		[]models.BookingStatus{models.BookingPending}, models.BookingConfirmed); err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("Booking %s not confirmed after payment: %v", p.BookingID, err))
	} else if err := s.Bookings.AppendHistory(ctx, models.BookingHistory{
		BookingID:    p.BookingID,
		StatusChange: "Booking confirmed",
		ChangedBy:    userID,
		ChangeReason: "Payment completed",
		Timestamp:    time.Now(),
	}); err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("Failed to append booking history for %s: %v", p.BookingID, err))
	}

	s.Logger.LogPayment("COMPLETE", p.PaymentID, fmt.Sprintf("booking %s charged %s via %s", p.BookingID, money.Format(p.Amount), p.Gateway))
	s.publish(s.Topics.PaymentCompleted, "payment_completed", p)
	return p, nil
}

func (s *Service) fail(ctx context.Context, p *models.Payment, userID, reason string) {
	p.Status = models.PaymentFailed
	if err := s.Payments.UpdatePayment(ctx, p); err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("Failed to mark payment %s failed: %v", p.PaymentID, err))
	}
	s.appendHistory(ctx, p.PaymentID, userID, "Payment failed", reason)
	s.Logger.LogPayment("FAIL", p.PaymentID, reason)
	s.publish(s.Topics.PaymentFailed, "payment_failed", p)
}

// deriveAmount normalizes the booking total into the canonical decimal form.
// If the stored total is unusable (unparsable or non-positive) it recomputes
// price*seats+fee from the schedule rather than charging a fabricated zero.
func (s *Service) deriveAmount(ctx context.Context, b *models.Booking) (decimal.Decimal, error) {
	amount, err := money.Normalize(b.TotalAmount)
	if err != nil || !amount.IsPositive() {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("Booking %s total unusable (%v), recomputing from schedule", b.BookingID, err))

		schedule, schedErr := s.Catalog.GetSchedule(ctx, b.ScheduleID)
		if schedErr != nil {
			return decimal.Zero, schedErr
		}
		seats, seatErr := s.Bookings.GetBookingSeats(ctx, b.BookingID)
		if seatErr != nil {
			return decimal.Zero, seatErr
		}
		amount = schedule.Price.Mul(decimal.NewFromInt(int64(len(seats)))).Add(s.serviceFee).Round(2)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAmountInvalid, money.Format(amount))
	}
	return amount, nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.Payments.GetPayment(ctx, paymentID)
}

// Refund reverses a completed payment in full: the payment becomes refunded
// (terminal), the booking cascades to cancelled and its seats are released.
func (s *Service) Refund(ctx context.Context, paymentID, userID, reason string) error {
	p, err := s.Payments.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.Status != models.PaymentCompleted {
		return fmt.Errorf("%w: payment %s is %s", ErrRefundNotAllowed, paymentID, p.Status)
	}

	// Conditional write: a concurrent refund loses here.
	if err := s.Payments.MarkRefunded(ctx, paymentID, reason); err != nil {
		return err
	}

	s.appendHistory(ctx, paymentID, userID, "Payment refunded", reason)

	// Cancel, seat release and history commit as one transaction in the
	// booking store; a failed cascade leaves the booking untouched.
	if err := s.Bookings.CancelBooking(ctx, p.BookingID,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed, models.BookingCompleted},
		userID, "Payment refunded"); err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("Booking %s not cancelled after refund: %v", p.BookingID, err))
	}

	p.Status = models.PaymentRefunded
	p.RefundAmount = p.Amount
	p.RefundReason = reason
	s.Logger.LogPayment("REFUND", paymentID, fmt.Sprintf("refunded %s to booking %s", money.Format(p.RefundAmount), p.BookingID))
	s.publish(s.Topics.PaymentRefunded, "payment_refunded", p)
	return nil
}

func (s *Service) appendHistory(ctx context.Context, paymentID, userID, change, reason string) {
	if err := s.Payments.AppendHistory(ctx, models.PaymentHistory{
		PaymentID:    paymentID,
		StatusChange: change,
		ChangedBy:    userID,
		ChangeReason: reason,
		Timestamp:    time.Now(),
	}); err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("Failed to append history for payment %s: %v", paymentID, err))
	}
}

func (s *Service) publish(topic, eventType string, p *models.Payment) {
	if s.Kafka == nil || topic == "" {
		return
	}
	event := models.PaymentEvent{
		Type:      eventType,
		PaymentID: p.PaymentID,
		BookingID: p.BookingID,
		Payment:   p,
		Timestamp: time.Now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to marshal %s event: %v", eventType, err))
		return
	}
	if err := s.Kafka.Publish(topic, p.PaymentID, value); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (%s): %v", eventType, err))
	}
}
