package services

import (
	"context"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/internal/infrastructure/outbox"
	"github.com/fastygo/bizdesk/usecase"
)

// OutboxPublisher stores events in the local outbox instead of sending them.
// The OutboxRelay delivers them later. An enqueue failure is still a publish
// failure for the caller.
type OutboxPublisher struct {
	store *outbox.Store
}

func NewOutboxPublisher(store *outbox.Store) *OutboxPublisher {
	return &OutboxPublisher{store: store}
}

func (p *OutboxPublisher) Publish(ctx context.Context, evt *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item, err := outbox.NewItem(evt)
	if err != nil {
		return err
	}
	return p.store.Enqueue(item)
}

var _ usecase.EventPublisher = (*OutboxPublisher)(nil)
