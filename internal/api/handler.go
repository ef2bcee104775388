package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"transit-ticketing/internal/auth"
	"transit-ticketing/internal/booking"
	"transit-ticketing/internal/catalog"
	"transit-ticketing/internal/logger"
	"transit-ticketing/internal/models"
	"transit-ticketing/internal/money"
	"transit-ticketing/internal/tickets"
	"transit-ticketing/internal/utils"
)

type Handler struct {
	Bookings *booking.Service
	Catalog  *catalog.DB
	Tickets  *tickets.Generator
	Logger   *logger.Logger
}

func NewHandler(bookings *booking.Service, cat *catalog.DB, tix *tickets.Generator, log *logger.Logger) *Handler {
	return &Handler{
		Bookings: bookings,
		Catalog:  cat,
		Tickets:  tix,
		Logger:   log,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(utils.ErrorResponse(message, err.Error()))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(utils.SuccessResponse(message, data))
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.Bookings.CreateBooking(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: %v", err))
		h.writeError(w, "Could not create booking", err)
		return
	}

	seatIDs := make([]string, len(req.SeatIDs))
	copy(seatIDs, req.SeatIDs)
	h.writeJSON(w, http.StatusCreated, "Booking created", models.BookingResponse{
		BookingID:   b.BookingID,
		ScheduleID:  b.ScheduleID,
		UserID:      b.UserID,
		SeatIDs:     seatIDs,
		TotalAmount: money.Format(b.TotalAmount),
		Status:      b.Status,
	})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	userID := auth.UserID(r.Context())

	b, err := h.Bookings.GetBooking(r.Context(), bookingID, userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking: %v", err))
		h.writeError(w, "Could not fetch booking", err)
		return
	}

	h.writeJSON(w, http.StatusOK, "Booking found", b)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	bookings, err := h.Bookings.ListUserBookings(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBookings: %v", err))
		h.writeError(w, "Could not list bookings", err)
		return
	}

	h.writeJSON(w, http.StatusOK, "Bookings listed", bookings)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	userID := auth.UserID(r.Context())

	if err := h.Bookings.CancelBooking(r.Context(), bookingID, userID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
		h.writeError(w, "Could not cancel booking", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetBoardingPass streams the encrypted QR code for a confirmed booking.
func (h *Handler) GetBoardingPass(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	userID := auth.UserID(r.Context())

	b, err := h.Bookings.GetBooking(r.Context(), bookingID, userID)
	if err != nil {
		h.writeError(w, "Could not fetch booking", err)
		return
	}

	seats, err := h.Bookings.GetBookingSeats(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, "Could not fetch booking seats", err)
		return
	}

	png, err := h.Tickets.GenerateBoardingPass(b, seats)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBoardingPass: %v", err))
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	schedule, err := h.Catalog.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		h.writeError(w, "Could not fetch schedule", err)
		return
	}

	available, err := h.Catalog.CountAvailableSeats(r.Context(), scheduleID)
	if err != nil {
		h.writeError(w, "Could not count seats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, "Schedule found", map[string]interface{}{
		"schedule":        schedule,
		"available_seats": available,
	})
}

func (h *Handler) ListScheduleSeats(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	availability, err := h.Catalog.ListAvailability(r.Context(), scheduleID)
	if err != nil {
		h.writeError(w, "Could not list seats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, "Seats listed", availability)
}
