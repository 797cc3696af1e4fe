package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteErrorWithDetails(w, statusCode, message, code, "")
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// Common error codes. Allocation rejections use their reason as the code.
const (
	CodeInvalidInput  = "invalid_request"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeInternalError = "internal_error"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

// StatusFor maps a rejection reason to its HTTP status.
func StatusFor(reason domain.RejectionReason) int {
	switch reason {
	case domain.ReasonInvalidRequest:
		return http.StatusBadRequest
	case domain.ReasonMentorNotFound:
		return http.StatusNotFound
	case domain.ReasonNoMentorAvailable, domain.ReasonMentorUnavailableAtTime:
		return http.StatusConflict
	case domain.ReasonStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Rejection writes an allocation rejection. Storage failures keep their
// cause out of the response body.
func Rejection(w http.ResponseWriter, err error) {
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		InternalError(w, "internal error")
		return
	}
	msg := rej.Msg
	if rej.Reason == domain.ReasonStorageUnavailable || msg == "" {
		msg = string(rej.Reason)
	}
	WriteError(w, StatusFor(rej.Reason), msg, string(rej.Reason))
}
