package repository

import (
	"time"

	"github.com/fastygo/bizdesk/domain"
)

type BookingRepository = Repository[*domain.Booking]

type BookingFilter struct {
	BusinessID     string
	CommerceID     string
	ClientID       string
	ProfessionalID string
	Status         string
	From           time.Time
	To             time.Time
	Limit          int
	Offset         int
}
