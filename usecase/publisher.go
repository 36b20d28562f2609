package usecase

import (
	"context"

	"github.com/fastygo/bizdesk/domain"
)

// EventPublisher hands a committed event to the out-of-process bus. A nil error
// means the event was handed off, not that any consumer processed it.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(ctx context.Context, event *domain.Event) error

func (f PublisherFunc) Publish(ctx context.Context, event *domain.Event) error {
	return f(ctx, event)
}
