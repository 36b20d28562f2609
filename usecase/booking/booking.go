package booking

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/repository"
	"github.com/fastygo/bizdesk/usecase"
)

type UseCase struct {
	bookings *usecase.WritePath[*domain.Booking]
	fetchCap int
	logger   *zap.Logger
}

func New(bookings repository.BookingRepository, publisher usecase.EventPublisher, logger *zap.Logger, opts ...usecase.Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := usecase.BuildOptions(opts...)
	return &UseCase{
		bookings: usecase.NewWritePath(bookings, publisher, domain.ErrBookingNotFound, logger, o),
		fetchCap: o.FetchCap,
		logger:   logger,
	}
}

type CreateInput struct {
	ID             string
	BusinessID     string
	CommerceID     string
	ClientID       string
	ServiceID      string
	ProfessionalID string
	StartAt        time.Time
	EndAt          time.Time
	Status         string
	Notes          string
	Price          float64
	Metadata       map[string]string
}

func (in CreateInput) validate() error {
	switch {
	case in.BusinessID == "" || in.CommerceID == "":
		return domain.Invalidf("businessId and commerceId are required")
	case in.ClientID == "":
		return domain.Invalidf("clientId is required")
	case in.StartAt.IsZero():
		return domain.Invalidf("startAt is required")
	case in.Price < 0:
		return domain.Invalidf("price cannot be negative")
	}
	return validateWindow(in.StartAt, in.EndAt)
}

func validateWindow(start, end time.Time) error {
	if !end.After(start) {
		return domain.Invalidf("endAt must be after startAt")
	}
	return nil
}

// CreateBooking validates the request before anything is stored. Status defaults to PENDING.
func (uc *UseCase) CreateBooking(ctx context.Context, in CreateInput) (*domain.Booking, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	status := domain.BookingPending
	if strings.TrimSpace(in.Status) != "" {
		parsed, err := domain.ParseBookingStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	b := &domain.Booking{
		ID:             in.ID,
		BusinessID:     in.BusinessID,
		CommerceID:     in.CommerceID,
		ClientID:       in.ClientID,
		ServiceID:      in.ServiceID,
		ProfessionalID: in.ProfessionalID,
		StartAt:        in.StartAt.UTC(),
		EndAt:          in.EndAt.UTC(),
		Status:         status,
		Notes:          in.Notes,
		Price:          in.Price,
		Metadata:       in.Metadata,
		Active:         true,
	}
	return uc.bookings.Create(ctx, b, domain.NewBookingCreated)
}

func (uc *UseCase) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return uc.bookings.Load(ctx, id)
}

// UpdateBooking applies a partial update. The resulting time window is checked before the write.
func (uc *UseCase) UpdateBooking(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	if patch.Price != nil && *patch.Price < 0 {
		return nil, domain.Invalidf("price cannot be negative")
	}
	return uc.bookings.Mutate(ctx, id, func(b *domain.Booking, _ time.Time) (usecase.EventFactory[*domain.Booking], error) {
		if b.Status == domain.BookingCancelled {
			return nil, domain.Conflictf("booking %s is cancelled", b.ID)
		}
		changed := patch.Apply(b)
		if err := validateWindow(b.StartAt, b.EndAt); err != nil {
			return nil, err
		}
		return func(stored *domain.Booking, at time.Time, md domain.Metadata) *domain.Event {
			return domain.NewBookingUpdated(stored, changed, at, md)
		}, nil
	})
}

// ChangeStatus sets any status. Moving to CANCELLED goes through Cancel so the
// cancellation bookkeeping is recorded.
func (uc *UseCase) ChangeStatus(ctx context.Context, id, status string) (*domain.Booking, error) {
	next, err := domain.ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}
	if next == domain.BookingCancelled {
		return uc.Cancel(ctx, id, "")
	}
	return uc.bookings.Mutate(ctx, id, func(b *domain.Booking, _ time.Time) (usecase.EventFactory[*domain.Booking], error) {
		old := b.Status
		b.Status = next
		return func(stored *domain.Booking, at time.Time, md domain.Metadata) *domain.Event {
			return domain.NewBookingStatusChanged(stored, old, at, md)
		}, nil
	})
}

// Cancel marks the booking CANCELLED. Cancelling a cancelled or completed booking is a conflict.
func (uc *UseCase) Cancel(ctx context.Context, id, reason string) (*domain.Booking, error) {
	actor := domain.PrincipalFromContext(ctx).Actor()
	return uc.bookings.Mutate(ctx, id, func(b *domain.Booking, now time.Time) (usecase.EventFactory[*domain.Booking], error) {
		if b.IsFinal() {
			return nil, domain.Conflictf("booking %s is already %s", b.ID, strings.ToLower(string(b.Status)))
		}
		old := b.Status
		cancelled := now
		b.Status = domain.BookingCancelled
		b.CancelledAt = &cancelled
		b.CancelledByUserID = actor
		b.CancelReason = strings.TrimSpace(reason)
		return func(stored *domain.Booking, at time.Time, md domain.Metadata) *domain.Event {
			return domain.NewBookingStatusChanged(stored, old, at, md)
		}, nil
	})
}

// ListBookings filters by tenant, client, professional and status in the store.
// Only the time-window overlap runs in memory over the capped result.
func (uc *UseCase) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	if filter.BusinessID == "" {
		return nil, domain.Invalidf("businessId is required")
	}

	q := repository.NewQuery().WhereEqualTo("businessId", filter.BusinessID)
	if filter.CommerceID != "" {
		q = q.WhereEqualTo("commerceId", filter.CommerceID)
	}
	if filter.ClientID != "" {
		q = q.WhereEqualTo("clientId", filter.ClientID)
	}
	if filter.ProfessionalID != "" {
		q = q.WhereEqualTo("professionalId", filter.ProfessionalID)
	}
	if filter.Status != "" {
		status, err := domain.ParseBookingStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		q = q.WhereEqualTo("status", status)
	}
	items, err := uc.bookings.Find(ctx, q.OrderByDescending("createdAt").Limit(uc.fetchCap))
	if err != nil {
		return nil, err
	}

	matched := usecase.FilterInMemory(items, func(b *domain.Booking) bool {
		return b.Overlaps(filter.From, filter.To)
	})
	usecase.SortNewestFirst(matched)
	return usecase.Paginate(matched, filter.Offset, filter.Limit), nil
}
