package handlers

import (
	"errors"
	"net/http"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/http/response"
	"github.com/diagnosis/mentor-bookings/internal/service"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
)

func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	students, err := h.directory.ListStudents(r.Context(), limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list students", "error", err)
		response.InternalError(w, "Failed to retrieve students")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *Handlers) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid student ID")
		return
	}

	st, err := h.directory.GetStudent(r.Context(), id)
	if errors.Is(err, service.ErrStudentNotFound) {
		response.NotFound(w, "Student not found")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to get student", "error", err, "student_id", id)
		response.InternalError(w, "Failed to retrieve student")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var in domain.StudentCreateReq
	if !h.decode(w, r, &in) {
		return
	}

	st, err := h.directory.CreateStudent(r.Context(), &in)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create student", "error", err)
		response.InternalError(w, "Failed to create student")
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handlers) SetStudentAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid student ID")
		return
	}
	var in domain.AvailabilityPatch
	if !h.decode(w, r, &in) {
		return
	}

	err := h.directory.SetStudentAvailability(r.Context(), id, *in.Availability)
	if errors.Is(err, service.ErrStudentNotFound) {
		response.NotFound(w, "Student not found")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to update student availability", "error", err, "student_id", id)
		response.InternalError(w, "Failed to update availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "availability": *in.Availability})
}
