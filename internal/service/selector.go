package service

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/repository"
)

var (
	ErrMentorNotFound    = errors.New("mentor not found")
	ErrNoMentorAvailable = errors.New("no available mentor found for the selected time or area of interest")
)

// MentorSelector picks the mentor for a booking request.
type MentorSelector struct {
	store repository.AvailabilityStore
}

func NewMentorSelector(store repository.AvailabilityStore) *MentorSelector {
	return &MentorSelector{store: store}
}

// Select resolves req.MentorID when set and otherwise searches for the best
// fit: premium first, then earliest availability, then lowest id. The
// explicit path does not re-check area or tier. Search results that do not
// match the area and time are dropped before ranking.
func (s *MentorSelector) Select(ctx context.Context, req *domain.BookingRequest) (*domain.Mentor, error) {
	if req.MentorID != nil {
		m, err := s.store.GetMentorByID(ctx, *req.MentorID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, ErrMentorNotFound
		}
		return m, nil
	}

	at := *req.ScheduledTime
	candidates, err := s.store.SearchMentors(ctx, req.AreaOfInterest, at)
	if err != nil {
		return nil, err
	}
	candidates = slices.DeleteFunc(candidates, func(m domain.Mentor) bool {
		return !m.Teaches(req.AreaOfInterest) || m.Availability < at
	})
	if len(candidates) == 0 {
		return nil, ErrNoMentorAvailable
	}

	best := slices.MinFunc(candidates, compareCandidates)
	return &best, nil
}

func compareCandidates(a, b domain.Mentor) int {
	if a.IsPremium != b.IsPremium {
		if a.IsPremium {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Availability, b.Availability); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
