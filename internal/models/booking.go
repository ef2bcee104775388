package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID       string          `bun:"booking_id,pk" json:"booking_id"`
	UserID          string          `bun:"user_id,notnull" json:"user_id"`
	ScheduleID      string          `bun:"schedule_id,notnull" json:"schedule_id"`
	TotalAmount     decimal.Decimal `bun:"total_amount,notnull,type:decimal(10,2)" json:"total_amount"`
	Status          BookingStatus   `bun:"status,notnull,default:'pending'" json:"status"`
	SpecialRequests string          `bun:"special_requests,nullzero" json:"special_requests,omitempty"`
	CreatedAt       time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// BookingSeat joins a booking to one claimed seat and carries that seat's
// passenger. Rows are created with the booking and never updated.
type BookingSeat struct {
	bun.BaseModel `bun:"table:booking_seats"`

	ID             int64  `bun:"id,pk,autoincrement" json:"id"`
	BookingID      string `bun:"booking_id,notnull" json:"booking_id"`
	SeatID         string `bun:"seat_id,notnull" json:"seat_id"`
	PassengerName  string `bun:"passenger_name,notnull" json:"passenger_name"`
	PassengerAge   int    `bun:"passenger_age,notnull" json:"passenger_age"`
	PassengerGender Gender `bun:"passenger_gender,notnull" json:"passenger_gender"`
}

// BookingHistory is an append-only trail; one row per status transition.
type BookingHistory struct {
	bun.BaseModel `bun:"table:booking_history"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	BookingID    string    `bun:"booking_id,notnull" json:"booking_id"`
	StatusChange string    `bun:"status_change,notnull" json:"status_change"`
	ChangedBy    string    `bun:"changed_by,nullzero" json:"changed_by,omitempty"`
	ChangeReason string    `bun:"change_reason,nullzero" json:"change_reason,omitempty"`
	Timestamp    time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`
}

type Passenger struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender Gender `json:"gender"`
}

type BookingRequest struct {
	ScheduleID      string      `json:"schedule_id"`
	SeatIDs         []string    `json:"seat_ids"`
	Passengers      []Passenger `json:"passengers"`
	SpecialRequests string      `json:"special_requests,omitempty"`
}

type BookingResponse struct {
	BookingID   string        `json:"booking_id"`
	ScheduleID  string        `json:"schedule_id"`
	UserID      string        `json:"user_id"`
	SeatIDs     []string      `json:"seat_ids"`
	TotalAmount string        `json:"total_amount"`
	Status      BookingStatus `json:"status"`
}

type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Booking   *Booking  `json:"booking,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
