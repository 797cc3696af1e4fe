package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/http/response"
	"github.com/diagnosis/mentor-bookings/internal/service"
	"github.com/diagnosis/mentor-bookings/pkg/auth"
	"github.com/diagnosis/mentor-bookings/pkg/config"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
	mw "github.com/diagnosis/mentor-bookings/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	directory      service.DirectoryService
	bookings       service.BookingService
	auth           config.AuthConfig
	idempotency    mw.IdempotencyStore
	idempotencyTTL time.Duration
	validate       *validator.Validate
}

// New wires the HTTP layer. idem may be nil, in which case Idempotency-Key
// headers are ignored.
func New(directory service.DirectoryService, bookings service.BookingService, cfg *config.Config, idem mw.IdempotencyStore) *Handlers {
	return &Handlers{
		directory:      directory,
		bookings:       bookings,
		auth:           cfg.Auth,
		idempotency:    idem,
		idempotencyTTL: cfg.Booking.IdempotencyTTL,
		validate:       newValidator(),
	}
}

// newValidator reports field errors under their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/mentors", func(r chi.Router) {
		r.Get("/", h.ListMentors)
		r.Get("/{id}", h.GetMentor)
		r.Group(func(ar chi.Router) {
			ar.Use(h.RequireAdmin)
			ar.Post("/", h.CreateMentor)
			ar.Put("/{id}/availability", h.SetMentorAvailability)
		})
	})

	r.Route("/students", func(r chi.Router) {
		r.Get("/", h.ListStudents)
		r.Get("/{id}", h.GetStudent)
		r.Group(func(ar chi.Router) {
			ar.Use(h.RequireAdmin)
			ar.Post("/", h.CreateStudent)
			ar.Put("/{id}/availability", h.SetStudentAvailability)
		})
	})

	r.Route("/bookings", func(r chi.Router) {
		if h.idempotency != nil {
			r.With(mw.Idempotency(h.idempotency, h.idempotencyTTL)).Post("/", h.CreateBooking)
		} else {
			r.Post("/", h.CreateBooking)
		}
		r.Get("/student/{id}", h.ListStudentBookings)
		r.Get("/mentor/{id}", h.ListMentorBookings)
		r.Delete("/{id}", h.CancelBooking)
	})

	return r
}

// RequireAdmin accepts only bearer tokens carrying the admin role.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(w, "Missing or invalid authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.Parse(token, h.auth.Audience, h.auth.JWTSecret)
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}
		if !claims.IsAdmin() {
			response.Forbidden(w, "Admin access required")
			return
		}

		ctx := context.WithValue(r.Context(), logger.ActorKey, claims.Sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// decodeJSON reads a JSON body into dst without struct validation. It
// writes the 400 itself and reports false on failure.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, "invalid json")
		return false
	}
	return true
}

// decode is decodeJSON followed by struct validation.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !h.decodeJSON(w, r, dst) {
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		response.BadRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Helper functions for common response patterns
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// Helper to parse pagination parameters
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
