package service

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/lock"
	"github.com/diagnosis/mentor-bookings/internal/repository"
	"github.com/diagnosis/mentor-bookings/internal/utils"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
)

// AllocationState tracks how far a request got before it was committed or
// rejected.
type AllocationState string

const (
	StateReceived        AllocationState = "received"
	StateMentorResolved  AllocationState = "mentor_resolved"
	StateConflictChecked AllocationState = "conflict_checked"
	StatePriced          AllocationState = "priced"
	StateCommitted       AllocationState = "committed"
	StateRejected        AllocationState = "rejected"
)

// Allocator turns a BookingRequest into a committed Booking or a
// *domain.Rejection. It never retries and never leaves a partial booking.
type Allocator struct {
	store     repository.AvailabilityStore
	ledger    repository.BookingLedger
	selector  *MentorSelector
	conflicts *ConflictChecker
	pricing   Pricer
	locker    lock.SlotLocker
	timeout   time.Duration
}

// NewAllocator wires the allocation pipeline. A nil locker falls back to an
// in-process LocalLocker; timeout <= 0 disables the allocation deadline.
func NewAllocator(store repository.AvailabilityStore, ledger repository.BookingLedger, locker lock.SlotLocker, timeout time.Duration) *Allocator {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Allocator{
		store:     store,
		ledger:    ledger,
		selector:  NewMentorSelector(store),
		conflicts: NewConflictChecker(ledger),
		pricing:   PricingEngine{},
		locker:    locker,
		timeout:   timeout,
	}
}

func (a *Allocator) Allocate(ctx context.Context, in *domain.BookingRequest) (*domain.Booking, error) {
	if in == nil {
		return nil, domain.Reject(domain.ReasonInvalidRequest, "request is required", nil)
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	state := StateReceived
	reject := func(reason domain.RejectionReason, msg string, err error) error {
		log := logger.WithContext(ctx).With("state", StateRejected, "from_state", state, "reason", reason, "student_id", in.StudentID)
		if reason == domain.ReasonStorageUnavailable {
			log.Error("Allocation failed", "error", err)
		} else {
			log.Info("Allocation rejected", "detail", msg)
		}
		return domain.Reject(reason, msg, err)
	}
	advance := func(next AllocationState) {
		state = next
		logger.DebugContext(ctx, "Allocation transition", "state", state, "student_id", in.StudentID)
	}

	if msg := validateRequest(in); msg != "" {
		return nil, reject(domain.ReasonInvalidRequest, msg, nil)
	}
	req := *in
	req.AreaOfInterest = utils.NormalizeTopic(req.AreaOfInterest)

	student, err := a.store.GetStudentByID(ctx, req.StudentID)
	if err != nil {
		return nil, reject(domain.ReasonStorageUnavailable, "load student", err)
	}
	if student == nil {
		return nil, reject(domain.ReasonInvalidRequest, "unknown student", nil)
	}
	if req.MentorID == nil && req.AreaOfInterest == "" {
		req.AreaOfInterest = utils.NormalizeTopic(student.AreaOfInterest)
		if req.AreaOfInterest == "" {
			return nil, reject(domain.ReasonInvalidRequest, "area_of_interest is required", nil)
		}
	}

	mentor, err := a.selector.Select(ctx, &req)
	switch {
	case errors.Is(err, ErrMentorNotFound):
		return nil, reject(domain.ReasonMentorNotFound, err.Error(), nil)
	case errors.Is(err, ErrNoMentorAvailable):
		return nil, reject(domain.ReasonNoMentorAvailable, err.Error(), nil)
	case err != nil:
		return nil, reject(domain.ReasonStorageUnavailable, "select mentor", err)
	}
	advance(StateMentorResolved)

	at := *req.ScheduledTime
	// Waiting on the lock never decides availability; the conflict check and
	// the ledger constraint do.
	unlock, err := a.locker.Lock(ctx, lock.SlotKey(mentor.ID, at))
	if err != nil {
		return nil, reject(domain.ReasonStorageUnavailable, "lock slot", err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		if err := unlock(releaseCtx); err != nil {
			logger.WarnContext(ctx, "Failed to release slot lock", "error", err, "mentor_id", mentor.ID)
		}
	}()

	taken, err := a.conflicts.HasConflict(ctx, mentor.ID, at)
	if err != nil {
		return nil, reject(domain.ReasonStorageUnavailable, "check conflicts", err)
	}
	if taken {
		return nil, reject(domain.ReasonMentorUnavailableAtTime, "mentor is not available at the selected time", nil)
	}
	advance(StateConflictChecked)

	cost, err := a.pricing.Price(mentor, req.Duration)
	if err != nil {
		return nil, reject(domain.ReasonInvalidRequest, err.Error(), err)
	}
	advance(StatePriced)

	booking, err := a.ledger.Insert(ctx, &domain.Booking{
		StudentID:     req.StudentID,
		MentorID:      mentor.ID,
		ScheduledTime: at,
		Duration:      req.Duration,
		SessionCost:   cost,
	})
	if errors.Is(err, repository.ErrSlotTaken) {
		return nil, reject(domain.ReasonMentorUnavailableAtTime, "mentor is not available at the selected time", err)
	}
	if err != nil {
		return nil, reject(domain.ReasonStorageUnavailable, "insert booking", err)
	}
	advance(StateCommitted)

	logger.InfoContext(ctx, "Booking allocated",
		"booking_id", booking.ID, "mentor_id", booking.MentorID,
		"scheduled_time", booking.ScheduledTime, "session_cost", booking.SessionCost,
	)
	return booking, nil
}

const maxTopicLen = 100

func validateRequest(req *domain.BookingRequest) string {
	switch {
	case req.StudentID <= 0:
		return "student_id is required"
	case req.Duration <= 0:
		return "duration must be positive"
	case req.ScheduledTime == nil:
		return "scheduled_time is required"
	case *req.ScheduledTime < 0:
		return "scheduled_time must not be negative"
	case req.MentorID != nil && *req.MentorID <= 0:
		return "mentor_id must be positive"
	case len(req.AreaOfInterest) > maxTopicLen:
		return "area_of_interest must be at most 100 characters"
	}
	return ""
}
