package service

import (
	"errors"

	"github.com/diagnosis/mentor-bookings/internal/domain"
)

const (
	BasePrice         = 2000.0
	ReferenceDuration = 30 // minutes
)

var ErrInvalidDuration = errors.New("duration must be positive")

type Pricer interface {
	Price(m *domain.Mentor, duration int) (float64, error)
}

// PricingEngine prices a session from the mentor tier. Standard mentors are
// free; premium sessions cost BasePrice per ReferenceDuration, pro rata and
// unrounded.
type PricingEngine struct{}

func (PricingEngine) Price(m *domain.Mentor, duration int) (float64, error) {
	if duration <= 0 {
		return 0, ErrInvalidDuration
	}
	if m.Tier() != domain.TierPremium {
		return 0, nil
	}
	return BasePrice * float64(duration) / ReferenceDuration, nil
}
