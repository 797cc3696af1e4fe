package service

import (
	"context"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/repository"
)

// ConflictChecker reports whether a mentor already has a booking starting at
// exactly the requested slot. Overlapping sessions that start at different
// slots are not conflicts.
type ConflictChecker struct {
	ledger repository.BookingLedger
}

func NewConflictChecker(ledger repository.BookingLedger) *ConflictChecker {
	return &ConflictChecker{ledger: ledger}
}

func (c *ConflictChecker) HasConflict(ctx context.Context, mentorID int64, at domain.Slot) (bool, error) {
	existing, err := c.ledger.FindByMentorAndTime(ctx, mentorID, at)
	if err != nil {
		return false, err
	}
	return len(existing) > 0, nil
}
