package domain

import (
	"errors"
	"fmt"
)

// RejectionReason is the typed outcome of a refused allocation.
type RejectionReason string

const (
	ReasonInvalidRequest          RejectionReason = "invalid_request"
	ReasonMentorNotFound          RejectionReason = "mentor_not_found"
	ReasonNoMentorAvailable       RejectionReason = "no_mentor_available"
	ReasonMentorUnavailableAtTime RejectionReason = "mentor_unavailable_at_time"
	ReasonStorageUnavailable      RejectionReason = "storage_unavailable"
)

// Rejection is returned by the allocator instead of a booking.
type Rejection struct {
	Reason RejectionReason
	Msg    string
	Err    error
}

func Reject(reason RejectionReason, msg string, err error) *Rejection {
	return &Rejection{Reason: reason, Msg: msg, Err: err}
}

func (e *Rejection) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	default:
		return string(e.Reason)
	}
}

func (e *Rejection) Unwrap() error { return e.Err }

// ReasonOf extracts the rejection reason from anywhere in err's chain.
func ReasonOf(err error) (RejectionReason, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}

func IsRejection(err error, reason RejectionReason) bool {
	got, ok := ReasonOf(err)
	return ok && got == reason
}
