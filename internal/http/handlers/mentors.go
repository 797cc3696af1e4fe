package handlers

import (
	"errors"
	"net/http"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/http/response"
	"github.com/diagnosis/mentor-bookings/internal/service"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
)

func (h *Handlers) ListMentors(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	mentors, err := h.directory.ListMentors(r.Context(), limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list mentors", "error", err)
		response.InternalError(w, "Failed to retrieve mentors")
		return
	}
	writeJSON(w, http.StatusOK, mentors)
}

func (h *Handlers) GetMentor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid mentor ID")
		return
	}

	m, err := h.directory.GetMentor(r.Context(), id)
	if errors.Is(err, service.ErrMentorNotFound) {
		response.NotFound(w, "Mentor not found")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to get mentor", "error", err, "mentor_id", id)
		response.InternalError(w, "Failed to retrieve mentor")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) CreateMentor(w http.ResponseWriter, r *http.Request) {
	var in domain.MentorCreateReq
	if !h.decode(w, r, &in) {
		return
	}

	m, err := h.directory.CreateMentor(r.Context(), &in)
	if errors.Is(err, service.ErrEmptyExpertise) {
		response.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create mentor", "error", err)
		response.InternalError(w, "Failed to create mentor")
		return
	}

	logger.InfoContext(r.Context(), "Mentor created", "mentor_id", m.ID, "premium", m.IsPremium)
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) SetMentorAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid mentor ID")
		return
	}
	var in domain.AvailabilityPatch
	if !h.decode(w, r, &in) {
		return
	}

	err := h.directory.SetMentorAvailability(r.Context(), id, *in.Availability)
	if errors.Is(err, service.ErrMentorNotFound) {
		response.NotFound(w, "Mentor not found")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to update mentor availability", "error", err, "mentor_id", id)
		response.InternalError(w, "Failed to update availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "availability": *in.Availability})
}
