package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/logger"
	"github.com/fastygo/bizdesk/repository"
)

// Entity is a persisted aggregate the write path can stamp.
type Entity interface {
	repository.Document
	Touch(at time.Time)
}

// EventFactory builds the event describing a committed write. It receives the
// value returned by the store, never the pre-write copy.
type EventFactory[T Entity] func(stored T, occurredOn time.Time, md domain.Metadata) *domain.Event

// Mutation applies a change to a loaded entity in place. Validation and
// business-rule failures must be returned here, before anything is written.
type Mutation[T Entity] func(current T, now time.Time) (EventFactory[T], error)

// WritePath runs the load, mutate, persist, publish sequence for one collection.
// Persistence and publication are not transactional: a publish failure is
// reported to the caller after the write has committed.
type WritePath[T Entity] struct {
	repo      repository.Repository[T]
	publisher EventPublisher
	clock     Clock
	static    domain.Metadata
	logger    *zap.Logger
	notFound  *domain.Error
}

// NewWritePath wires a write path. notFound is returned whenever the target
// entity is missing.
func NewWritePath[T Entity](repo repository.Repository[T], publisher EventPublisher, notFound *domain.Error, logger *zap.Logger, opts Options) *WritePath[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if publisher == nil {
		publisher = PublisherFunc(func(context.Context, *domain.Event) error { return nil })
	}
	return &WritePath[T]{
		repo:      repo,
		publisher: publisher,
		clock:     opts.Clock,
		static:    opts.Metadata,
		logger:    logger,
		notFound:  notFound,
	}
}

// Now returns the current time from the configured clock.
func (w *WritePath[T]) Now() time.Time {
	return w.clock()
}

// Load fetches an entity by id, mapping absence to the configured NotFound error.
func (w *WritePath[T]) Load(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, w.notFound
	}
	entity, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return zero, w.storeError(err)
	}
	return entity, nil
}

// Find runs a query against the collection.
func (w *WritePath[T]) Find(ctx context.Context, query repository.Query) ([]T, error) {
	items, err := w.repo.Find(ctx, query)
	if err != nil {
		return nil, w.storeError(err)
	}
	return items, nil
}

// Exists reports whether any document matches query.
func (w *WritePath[T]) Exists(ctx context.Context, query repository.Query) (bool, error) {
	_, err := w.repo.FindOne(ctx, query)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNoDocument):
		return false, nil
	default:
		return false, w.storeError(err)
	}
}

// Create stamps entity, stores it and publishes the event built from the stored value.
func (w *WritePath[T]) Create(ctx context.Context, entity T, factory EventFactory[T]) (T, error) {
	var zero T
	now := w.clock()
	stored, err := w.insertAt(ctx, entity, now)
	if err != nil {
		return zero, err
	}
	if err := w.Publish(ctx, factory(stored, now, w.EventMetadata(ctx))); err != nil {
		return zero, err
	}
	return stored, nil
}

// Insert stamps and stores entity without publishing. Callers publish the
// describing event themselves once every related write has committed.
func (w *WritePath[T]) Insert(ctx context.Context, entity T) (T, error) {
	return w.insertAt(ctx, entity, w.clock())
}

// Mutate loads id, applies mutation, replaces the stored document and publishes
// the event returned by mutation. A missing entity never reaches the publisher.
func (w *WritePath[T]) Mutate(ctx context.Context, id string, mutation Mutation[T]) (T, error) {
	var zero T
	current, err := w.Load(ctx, id)
	if err != nil {
		return zero, err
	}

	now := w.clock()
	factory, err := mutation(current, now)
	if err != nil {
		return zero, err
	}

	stored, err := w.persistAt(ctx, current, now)
	if err != nil {
		return zero, err
	}
	if err := w.Publish(ctx, factory(stored, now, w.EventMetadata(ctx))); err != nil {
		return zero, err
	}
	return stored, nil
}

// Persist stamps and replaces entity without publishing. It is used for
// bookkeeping writes that are described by an event on another aggregate.
func (w *WritePath[T]) Persist(ctx context.Context, entity T) (T, error) {
	return w.persistAt(ctx, entity, w.clock())
}

// Publish hands evt to the publisher. Failures are logged and returned as
// PUBLISH_FAILED; the preceding write is not rolled back.
func (w *WritePath[T]) Publish(ctx context.Context, evt *domain.Event) error {
	if err := w.publisher.Publish(ctx, evt); err != nil {
		logger.WithRequestID(ctx, w.logger).Error("event publish failed after committed write",
			zap.String("event_type", evt.Type()),
			zap.String("aggregate_id", evt.AggregateID()),
			zap.Error(err),
		)
		return domain.WrapError(domain.ErrCodePublishFailed, "event publish failed", err)
	}
	return nil
}

// EventMetadata derives the metadata overrides for events produced under ctx.
func (w *WritePath[T]) EventMetadata(ctx context.Context) domain.Metadata {
	if len(w.static) == 0 {
		return EventMetadata(ctx)
	}
	return domain.MergeMetadata(w.static, EventMetadata(ctx))
}

func (w *WritePath[T]) insertAt(ctx context.Context, entity T, now time.Time) (T, error) {
	var zero T
	entity.Touch(now)
	stored, err := w.repo.Create(ctx, entity)
	if err != nil {
		return zero, w.storeError(err)
	}
	return stored, nil
}

func (w *WritePath[T]) persistAt(ctx context.Context, entity T, now time.Time) (T, error) {
	var zero T
	entity.Touch(now)
	stored, err := w.repo.Update(ctx, entity)
	if err != nil {
		return zero, w.storeError(err)
	}
	return stored, nil
}

func (w *WritePath[T]) storeError(err error) error {
	var dErr *domain.Error
	switch {
	case errors.As(err, &dErr):
		return err
	case errors.Is(err, repository.ErrNoDocument):
		return w.notFound
	case errors.Is(err, repository.ErrDuplicateID):
		return domain.WrapError(domain.ErrCodeConflict, "entity already exists", err)
	default:
		return domain.WrapError(domain.ErrCodeInternal, "document store failure", err)
	}
}

// EventMetadata returns the principal's metadata plus the request id as correlation id.
func EventMetadata(ctx context.Context) domain.Metadata {
	md := domain.PrincipalFromContext(ctx).Metadata()
	if reqID := logger.RequestIDFromContext(ctx); reqID != "" {
		md[domain.MetaCorrelationID] = reqID
	}
	return md
}
