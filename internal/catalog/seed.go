package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transit-ticketing/internal/models"
)

// Seed populates a small sample catalog for local runs: one route per
// transportation type, a vehicle with a seat grid, and a schedule departing
// tomorrow. Assignments are bootstrapped for every seeded schedule.
func Seed(ctx context.Context, d *DB) error {
	types := []models.TransportationType{
		{ID: uuid.NewString(), Name: "Bus", Description: "Intercity bus"},
		{ID: uuid.NewString(), Name: "Train", Description: "Regional rail"},
	}
	if _, err := d.Bun.NewInsert().Model(&types).Exec(ctx); err != nil {
		return fmt.Errorf("seed transportation types: %w", err)
	}

	routes := []models.Route{
		{
			ID:                   uuid.NewString(),
			Origin:               "Colombo",
			Destination:          "Kandy",
			DistanceKM:           115,
			EstimatedDuration:    3 * time.Hour,
			TransportationTypeID: types[0].ID,
			IsActive:             true,
		},
		{
			ID:                   uuid.NewString(),
			Origin:               "Colombo",
			Destination:          "Galle",
			DistanceKM:           119,
			EstimatedDuration:    2 * time.Hour,
			TransportationTypeID: types[1].ID,
			IsActive:             true,
		},
	}
	if _, err := d.Bun.NewInsert().Model(&routes).Exec(ctx); err != nil {
		return fmt.Errorf("seed routes: %w", err)
	}

	for i, route := range routes {
		vehicle := models.Vehicle{
			ID:                   uuid.NewString(),
			VehicleNumber:        fmt.Sprintf("TT-%d01", i+1),
			TransportationTypeID: route.TransportationTypeID,
			Capacity:             40,
			Amenities:            []string{"WiFi", "AC"},
			IsActive:             true,
		}
		if _, err := d.Bun.NewInsert().Model(&vehicle).Exec(ctx); err != nil {
			return fmt.Errorf("seed vehicle: %w", err)
		}

		seats := make([]models.Seat, 0, vehicle.Capacity)
		seatTypes := []models.SeatType{models.SeatWindow, models.SeatAisle, models.SeatAisle, models.SeatWindow}
		for row := 1; row <= vehicle.Capacity/4; row++ {
			for col, letter := range []string{"A", "B", "C", "D"} {
				seats = append(seats, models.Seat{
					ID:         uuid.NewString(),
					VehicleID:  vehicle.ID,
					SeatNumber: fmt.Sprintf("%d%s", row, letter),
					SeatType:   seatTypes[col],
				})
			}
		}
		if _, err := d.Bun.NewInsert().Model(&seats).Exec(ctx); err != nil {
			return fmt.Errorf("seed seats: %w", err)
		}

		schedule := models.Schedule{
			ID:            uuid.NewString(),
			RouteID:       route.ID,
			VehicleID:     vehicle.ID,
			DepartureDate: time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
			DepartureTime: "08:30",
			ArrivalTime:   "11:30",
			Price:         decimal.RequireFromString("45.00"),
			Status:        models.ScheduleScheduled,
			CreatedAt:     time.Now(),
		}
		if _, err := d.Bun.NewInsert().Model(&schedule).Exec(ctx); err != nil {
			return fmt.Errorf("seed schedule: %w", err)
		}

		if err := d.EnsureAssignments(ctx, schedule.ID); err != nil {
			return fmt.Errorf("seed assignments: %w", err)
		}
	}

	return nil
}
