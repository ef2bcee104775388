package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleDelayed   ScheduleStatus = "delayed"
	ScheduleCancelled ScheduleStatus = "cancelled"
	ScheduleCompleted ScheduleStatus = "completed"
)

type SeatType string

const (
	SeatWindow SeatType = "window"
	SeatAisle  SeatType = "aisle"
	SeatMiddle SeatType = "middle"
)

type SeatState string

const (
	SeatStateAvailable SeatState = "available"
	SeatStateBooked    SeatState = "booked"
)

type TransportationType struct {
	bun.BaseModel `bun:"table:transportation_types"`

	ID          string `bun:"id,pk" json:"id"`
	Name        string `bun:"name,notnull,unique" json:"name"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`
}

type Route struct {
	bun.BaseModel `bun:"table:routes"`

	ID                   string        `bun:"id,pk" json:"id"`
	Origin               string        `bun:"origin,notnull" json:"origin"`
	Destination          string        `bun:"destination,notnull" json:"destination"`
	DistanceKM           float64       `bun:"distance_km" json:"distance_km"`
	EstimatedDuration    time.Duration `bun:"estimated_duration" json:"estimated_duration"`
	TransportationTypeID string        `bun:"transportation_type_id,notnull" json:"transportation_type_id"`
	IsActive             bool          `bun:"is_active,notnull,default:true" json:"is_active"`
}

type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles"`

	ID                   string   `bun:"id,pk" json:"id"`
	VehicleNumber        string   `bun:"vehicle_number,notnull,unique" json:"vehicle_number"`
	TransportationTypeID string   `bun:"transportation_type_id,notnull" json:"transportation_type_id"`
	Capacity             int      `bun:"capacity,notnull" json:"capacity"`
	Amenities            []string `bun:"amenities,array" json:"amenities,omitempty"`
	IsActive             bool     `bun:"is_active,notnull,default:true" json:"is_active"`
}

type Schedule struct {
	bun.BaseModel `bun:"table:schedules"`

	ID            string          `bun:"id,pk" json:"id"`
	RouteID       string          `bun:"route_id,notnull" json:"route_id"`
	VehicleID     string          `bun:"vehicle_id,notnull" json:"vehicle_id"`
	DepartureDate string          `bun:"departure_date,notnull" json:"departure_date"`
	DepartureTime string          `bun:"departure_time,notnull" json:"departure_time"`
	ArrivalTime   string          `bun:"arrival_time,notnull" json:"arrival_time"`
	Price         decimal.Decimal `bun:"price,notnull,type:decimal(10,2)" json:"price"`
	Status        ScheduleStatus  `bun:"status,notnull,default:'scheduled'" json:"status"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Seat is the physical seat identity, unique per vehicle. Per-trip
// availability lives in ScheduleSeatAssignment, not here.
type Seat struct {
	bun.BaseModel `bun:"table:seats"`

	ID         string   `bun:"id,pk" json:"id"`
	VehicleID  string   `bun:"vehicle_id,notnull" json:"vehicle_id"`
	SeatNumber string   `bun:"seat_number,notnull" json:"seat_number"`
	SeatType   SeatType `bun:"seat_type,notnull" json:"seat_type"`
}

// ScheduleSeatAssignment keys seat availability by (schedule, seat) so one
// vehicle can serve many trips. A booked row carries the owning booking id.
type ScheduleSeatAssignment struct {
	bun.BaseModel `bun:"table:schedule_seat_assignments"`

	ScheduleID string    `bun:"schedule_id,pk" json:"schedule_id"`
	SeatID     string    `bun:"seat_id,pk" json:"seat_id"`
	Status     SeatState `bun:"status,notnull,default:'available'" json:"status"`
	BookingID  string    `bun:"booking_id,nullzero" json:"booking_id,omitempty"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// SeatAvailability is the API view of one seat on one schedule.
type SeatAvailability struct {
	Seat      Seat      `json:"seat"`
	Status    SeatState `json:"status"`
	BookingID string    `json:"booking_id,omitempty"`
}
