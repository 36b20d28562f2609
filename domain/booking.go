package domain

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle position of an appointment.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

// ParseBookingStatus validates a status name.
func ParseBookingStatus(value string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch status {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow:
		return status, nil
	}
	return "", Invalidf("unknown booking status %q", value)
}

// Booking is an appointment a client holds with a commerce.
type Booking struct {
	ID                string            `json:"id" bson:"_id"`
	BusinessID        string            `json:"businessId" bson:"businessId"`
	CommerceID        string            `json:"commerceId" bson:"commerceId"`
	ClientID          string            `json:"clientId" bson:"clientId"`
	ServiceID         string            `json:"serviceId,omitempty" bson:"serviceId,omitempty"`
	ProfessionalID    string            `json:"professionalId,omitempty" bson:"professionalId,omitempty"`
	StartAt           time.Time         `json:"startAt" bson:"startAt"`
	EndAt             time.Time         `json:"endAt" bson:"endAt"`
	Status            BookingStatus     `json:"status" bson:"status"`
	Notes             string            `json:"notes,omitempty" bson:"notes,omitempty"`
	Price             float64           `json:"price" bson:"price"`
	Metadata          map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CancelledAt       *time.Time        `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	CancelledByUserID string            `json:"cancelledByUserId,omitempty" bson:"cancelledByUserId,omitempty"`
	CancelReason      string            `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`
	Active            bool              `json:"active" bson:"active"`
	CreatedAt         time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt" bson:"updatedAt"`
}

func (b *Booking) EntityID() string { return b.ID }
func (b *Booking) SetEntityID(id string) { b.ID = id }
func (b *Booking) CreatedTime() time.Time { return b.CreatedAt }

// Touch refreshes UpdatedAt and sets CreatedAt on first write.
func (b *Booking) Touch(at time.Time) {
	b.UpdatedAt = at
	if b.CreatedAt.IsZero() {
		b.CreatedAt = at
	}
}

// IsFinal reports whether the booking can no longer be cancelled.
func (b *Booking) IsFinal() bool {
	return b != nil && (b.Status == BookingCancelled || b.Status == BookingCompleted)
}

// Overlaps reports whether the booking intersects [from, to). Zero bounds are open.
func (b *Booking) Overlaps(from, to time.Time) bool {
	if !from.IsZero() && !b.EndAt.After(from) {
		return false
	}
	if !to.IsZero() && !b.StartAt.Before(to) {
		return false
	}
	return true
}

// BookingPatch is a partial update. Nil fields are left untouched.
type BookingPatch struct {
	ServiceID      *string
	ProfessionalID *string
	StartAt        *time.Time
	EndAt          *time.Time
	Notes          *string
	Price          *float64
	Metadata       map[string]string
}

// Apply copies the non-nil fields of p onto b and returns the changed attribute names.
func (p BookingPatch) Apply(b *Booking) []string {
	var changed []string
	setString(&changed, "serviceId", p.ServiceID, &b.ServiceID)
	setString(&changed, "professionalId", p.ProfessionalID, &b.ProfessionalID)
	setString(&changed, "notes", p.Notes, &b.Notes)
	if p.StartAt != nil && !p.StartAt.Equal(b.StartAt) {
		b.StartAt = *p.StartAt
		changed = append(changed, "startAt")
	}
	if p.EndAt != nil && !p.EndAt.Equal(b.EndAt) {
		b.EndAt = *p.EndAt
		changed = append(changed, "endAt")
	}
	if p.Price != nil && *p.Price != b.Price {
		b.Price = *p.Price
		changed = append(changed, "price")
	}
	if p.Metadata != nil {
		b.Metadata = p.Metadata
		changed = append(changed, "metadata")
	}
	return changed
}
