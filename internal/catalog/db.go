package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"transit-ticketing/internal/booking"
	"transit-ticketing/internal/models"
)

// DB serves the read-mostly reference data: routes, vehicles, schedules,
// seats and the per-schedule seat assignments that carry availability.
type DB struct {
	Bun *bun.DB
}

func (d *DB) GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	var schedule models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedule).
		Where("id = ?", scheduleID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", booking.ErrScheduleNotFound, scheduleID)
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (d *DB) ListSeats(ctx context.Context, vehicleID string) ([]models.Seat, error) {
	var seats []models.Seat
	err := d.Bun.NewSelect().
		Model(&seats).
		Where("vehicle_id = ?", vehicleID).
		Order("seat_number").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func (d *DB) GetSeats(ctx context.Context, seatIDs []string) ([]models.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	var seats []models.Seat
	err := d.Bun.NewSelect().
		Model(&seats).
		Where("id IN (?)", bun.In(seatIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// EnsureAssignments creates an available assignment row for every seat of
// the schedule's vehicle. Existing rows are left untouched, so re-running is
// safe and never resurrects booked seats.
func (d *DB) EnsureAssignments(ctx context.Context, scheduleID string) error {
	schedule, err := d.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}

	seats, err := d.ListSeats(ctx, schedule.VehicleID)
	if err != nil {
		return err
	}

	assignments := make([]models.ScheduleSeatAssignment, len(seats))
	for i, seat := range seats {
		assignments[i] = models.ScheduleSeatAssignment{
			ScheduleID: scheduleID,
			SeatID:     seat.ID,
			Status:     models.SeatStateAvailable,
		}
	}
	if len(assignments) == 0 {
		return nil
	}

	_, err = d.Bun.NewInsert().
		Model(&assignments).
		On("CONFLICT (schedule_id, seat_id) DO NOTHING").
		Exec(ctx)
	return err
}

// CountAvailableSeats derives availability live from the assignment table.
// There is no cached counter to drift out of sync.
func (d *DB) CountAvailableSeats(ctx context.Context, scheduleID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.ScheduleSeatAssignment)(nil)).
		Where("schedule_id = ?", scheduleID).
		Where("status = ?", models.SeatStateAvailable).
		Count(ctx)
}

// ListAvailability returns every seat of the schedule's vehicle with its
// per-trip state.
func (d *DB) ListAvailability(ctx context.Context, scheduleID string) ([]models.SeatAvailability, error) {
	schedule, err := d.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	seats, err := d.ListSeats(ctx, schedule.VehicleID)
	if err != nil {
		return nil, err
	}

	var assignments []models.ScheduleSeatAssignment
	err = d.Bun.NewSelect().
		Model(&assignments).
		Where("schedule_id = ?", scheduleID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.ScheduleSeatAssignment, len(assignments))
	for _, a := range assignments {
		byID[a.SeatID] = a
	}

	result := make([]models.SeatAvailability, len(seats))
	for i, seat := range seats {
		state := models.SeatStateAvailable
		bookingID := ""
		if a, ok := byID[seat.ID]; ok {
			state = a.Status
			bookingID = a.BookingID
		}
		result[i] = models.SeatAvailability{Seat: seat, Status: state, BookingID: bookingID}
	}
	return result, nil
}
