package handlers

import (
	"net/http"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/http/response"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
)

// CreateBooking runs one allocation. Every refusal comes back as a JSON
// error whose code is the rejection reason. Field checks are left to the
// allocator so invalid requests are published as rejections too.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	b, err := h.bookings.Allocate(r.Context(), &in)
	if err != nil {
		response.Rejection(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) ListStudentBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid student ID")
		return
	}
	views, err := h.bookings.ListByStudent(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list student bookings", "error", err, "student_id", id)
		response.InternalError(w, "Failed to retrieve bookings")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) ListMentorBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid mentor ID")
		return
	}
	views, err := h.bookings.ListByMentor(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list mentor bookings", "error", err, "mentor_id", id)
		response.InternalError(w, "Failed to retrieve bookings")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// CancelBooking is idempotent: a missing booking still answers 200 with
// canceled=false.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid booking ID")
		return
	}
	removed, err := h.bookings.Cancel(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to cancel booking", "error", err, "booking_id", id)
		response.InternalError(w, "Failed to cancel booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "canceled": removed})
}
