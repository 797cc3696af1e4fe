package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/repository"
	"github.com/diagnosis/mentor-bookings/pkg/events"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
)

type BookingService interface {
	Allocate(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	ListByStudent(ctx context.Context, studentID int64) ([]domain.BookingView, error)
	ListByMentor(ctx context.Context, mentorID int64) ([]domain.BookingView, error)
}

type bookingService struct {
	allocator *Allocator
	ledger    repository.BookingLedger
	eventBus  events.Publisher
}

func NewBookingService(allocator *Allocator, ledger repository.BookingLedger, eventBus events.Publisher) BookingService {
	return &bookingService{
		allocator: allocator,
		ledger:    ledger,
		eventBus:  eventBus,
	}
}

func (s *bookingService) Allocate(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error) {
	booking, err := s.allocator.Allocate(ctx, req)
	if err != nil {
		if reason, ok := domain.ReasonOf(err); ok && req != nil {
			s.publishRejected(ctx, req, reason)
		}
		return nil, err
	}

	event := events.BookingAllocatedEvent{
		BookingID:     booking.ID,
		Reference:     booking.Reference.String(),
		StudentID:     booking.StudentID,
		MentorID:      booking.MentorID,
		ScheduledTime: int64(booking.ScheduledTime),
		Duration:      booking.Duration,
		SessionCost:   booking.SessionCost,
		AllocatedAt:   booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingAllocated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking allocated event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) publishRejected(ctx context.Context, req *domain.BookingRequest, reason domain.RejectionReason) {
	event := events.BookingRejectedEvent{
		StudentID:  req.StudentID,
		MentorID:   req.MentorID,
		Area:       req.AreaOfInterest,
		Reason:     string(reason),
		RejectedAt: time.Now(),
	}
	if req.ScheduledTime != nil {
		event.ScheduledTime = int64(*req.ScheduledTime)
	}
	if err := s.eventBus.Publish(ctx, events.BookingRejected, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking rejected event", "error", err, "student_id", req.StudentID)
	}
}

// Cancel deletes a booking. Cancelling an unknown or already cancelled
// booking is not an error and reports false.
func (s *bookingService) Cancel(ctx context.Context, id int64) (bool, error) {
	removed, err := s.ledger.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if removed == nil {
		return false, nil
	}

	event := events.BookingCanceledEvent{
		BookingID:     removed.ID,
		StudentID:     removed.StudentID,
		MentorID:      removed.MentorID,
		ScheduledTime: int64(removed.ScheduledTime),
		CanceledAt:    time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingCanceled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", removed.ID)
	}
	return true, nil
}

func (s *bookingService) ListByStudent(ctx context.Context, studentID int64) ([]domain.BookingView, error) {
	return s.ledger.FindByStudent(ctx, studentID)
}

func (s *bookingService) ListByMentor(ctx context.Context, mentorID int64) ([]domain.BookingView, error) {
	return s.ledger.FindByMentor(ctx, mentorID)
}
