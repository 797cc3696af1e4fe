package domain

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID            int64     `json:"id"`
	Reference     uuid.UUID `json:"reference"`
	StudentID     int64     `json:"student_id"`
	MentorID      int64     `json:"mentor_id"`
	ScheduledTime Slot      `json:"scheduled_time"`
	Duration      int       `json:"duration"`
	SessionCost   float64   `json:"session_cost"`
	CreatedAt     time.Time `json:"created_at"`
}

// BookingRequest asks the allocator for a session. A non-nil MentorID pins
// the mentor and skips the search.
type BookingRequest struct {
	StudentID      int64  `json:"student_id"`
	AreaOfInterest string `json:"area_of_interest"`
	MentorID       *int64 `json:"mentor_id,omitempty"`
	Duration       int    `json:"duration"`
	ScheduledTime  *Slot  `json:"scheduled_time"`
}

// BookingView is a booking joined with participant names, as returned by
// the per-student and per-mentor listings.
type BookingView struct {
	BookingID     int64   `json:"booking_id"`
	StudentID     int64   `json:"student_id"`
	StudentName   string  `json:"student_name"`
	MentorID      int64   `json:"mentor_id"`
	MentorName    string  `json:"mentor_name"`
	ScheduledTime Slot    `json:"scheduled_time"`
	Duration      int     `json:"duration"`
	SessionCost   float64 `json:"session_cost"`
}
