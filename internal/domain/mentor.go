package domain

import (
	"slices"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/utils"
)

// Slot is an opaque orderable availability key. Bookings and availability
// markers are compared and ordered by it; it is never read as wall time.
type Slot int64

type Mentor struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Availability     Slot      `json:"availability"`
	AreasOfExpertise []string  `json:"areas_of_expertise"`
	IsPremium        bool      `json:"is_premium"`
	CreatedAt        time.Time `json:"created_at"`
}

// Tier classifies a mentor for pricing.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

func (m *Mentor) Tier() Tier {
	if m.IsPremium {
		return TierPremium
	}
	return TierStandard
}

// Teaches reports whether topic is in the mentor's expertise set.
func (m *Mentor) Teaches(topic string) bool {
	t := utils.NormalizeTopic(topic)
	if t == "" {
		return false
	}
	return slices.Contains(utils.NormalizeTopics(m.AreasOfExpertise), t)
}

type Student struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Availability   Slot      `json:"availability"`
	AreaOfInterest string    `json:"area_of_interest"`
	CreatedAt      time.Time `json:"created_at"`
}

type MentorCreateReq struct {
	Name             string   `json:"name" validate:"required,max=200"`
	Availability     *Slot    `json:"availability" validate:"required"`
	AreasOfExpertise []string `json:"areas_of_expertise" validate:"required,min=1,dive,required,max=100"`
	IsPremium        bool     `json:"is_premium"`
}

type StudentCreateReq struct {
	Name           string `json:"name" validate:"required,max=200"`
	Availability   *Slot  `json:"availability" validate:"required"`
	AreaOfInterest string `json:"area_of_interest" validate:"max=100"`
}

type AvailabilityPatch struct {
	Availability *Slot `json:"availability" validate:"required"`
}
