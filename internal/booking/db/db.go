package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"transit-ticketing/internal/booking"
	"transit-ticketing/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateBookingWithSeats persists the booking, its seat rows and the seat
// claims as one transaction. Each claim is a conditional update guarded on
// the assignment still being available; any seat lost to a concurrent
// booking aborts the whole transaction.
func (d *DB) CreateBookingWithSeats(ctx context.Context, b *models.Booking, seats []models.BookingSeat) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		if _, err := tx.NewInsert().Model(&seats).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert booking seats: %w", err)
		}

		for _, seat := range seats {
			res, err := tx.NewUpdate().
				Model((*models.ScheduleSeatAssignment)(nil)).
				Set("status = ?", models.SeatStateBooked).
				Set("booking_id = ?", b.BookingID).
				Set("updated_at = ?", time.Now()).
				Where("schedule_id = ?", b.ScheduleID).
				Where("seat_id = ?", seat.SeatID).
				Where("status = ?", models.SeatStateAvailable).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to claim seat %s: %w", seat.SeatID, err)
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if rows == 0 {
				return fmt.Errorf("%w: seat %s on schedule %s", booking.ErrSeatUnavailable, seat.SeatID, b.ScheduleID)
			}
		}

		history := models.BookingHistory{
			BookingID:    b.BookingID,
			StatusChange: "Booking created",
			ChangedBy:    b.UserID,
			Timestamp:    time.Now(),
		}
		if _, err := tx.NewInsert().Model(&history).Exec(ctx); err != nil {
			return fmt.Errorf("failed to append booking history: %w", err)
		}

		return nil
	})
}

func (d *DB) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.NewSelect().
		Model(&b).
		Where("booking_id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", booking.ErrBookingNotFound, bookingID)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *DB) GetBookingSeats(ctx context.Context, bookingID string) ([]models.BookingSeat, error) {
	var seats []models.BookingSeat
	err := d.Bun.NewSelect().
		Model(&seats).
		Where("booking_id = ?", bookingID).
		Order("seat_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func (d *DB) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingStatus is a compare-and-set: the transition only happens if
// the booking is still in one of the expected prior states.
func (d *DB) UpdateBookingStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("booking_id = ?", bookingID).
		Where("status IN (?)", bun.In(from)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: booking %s -> %s", booking.ErrInvalidStateTransition, bookingID, to)
	}
	return nil
}

// CancelBooking runs the cancellation as one transaction: the status
// compare-and-set, the seat release and the history row commit together or
// not at all. A release that fails mid-way can never strand a cancelled
// booking with seats still claimed.
func (d *DB) CancelBooking(ctx context.Context, bookingID string, from []models.BookingStatus, changedBy, reason string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Booking)(nil)).
			Set("status = ?", models.BookingCancelled).
			Set("updated_at = ?", time.Now()).
			Where("booking_id = ?", bookingID).
			Where("status IN (?)", bun.In(from)).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: booking %s -> %s", booking.ErrInvalidStateTransition, bookingID, models.BookingCancelled)
		}

		if err := releaseSeats(ctx, tx, bookingID); err != nil {
			return fmt.Errorf("failed to release seats for booking %s: %w", bookingID, err)
		}

		history := models.BookingHistory{
			BookingID:    bookingID,
			StatusChange: "Booking cancelled",
			ChangedBy:    changedBy,
			ChangeReason: reason,
			Timestamp:    time.Now(),
		}
		if _, err := tx.NewInsert().Model(&history).Exec(ctx); err != nil {
			return fmt.Errorf("failed to append booking history: %w", err)
		}

		return nil
	})
}

// releaseSeats frees every assignment claimed by the booking. The booking_id
// guard means a seat re-claimed by a later booking is never touched.
func releaseSeats(ctx context.Context, idb bun.IDB, bookingID string) error {
	_, err := idb.NewUpdate().
		Model((*models.ScheduleSeatAssignment)(nil)).
		Set("status = ?", models.SeatStateAvailable).
		Set("booking_id = NULL").
		Set("updated_at = ?", time.Now()).
		Where("booking_id = ?", bookingID).
		Exec(ctx)
	return err
}

func (d *DB) AppendHistory(ctx context.Context, entry models.BookingHistory) error {
	_, err := d.Bun.NewInsert().Model(&entry).Exec(ctx)
	return err
}

// ListHistory returns the audit trail for one booking, oldest first.
func (d *DB) ListHistory(ctx context.Context, bookingID string) ([]models.BookingHistory, error) {
	var history []models.BookingHistory
	err := d.Bun.NewSelect().
		Model(&history).
		Where("booking_id = ?", bookingID).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return history, nil
}
