// Package publisher holds the transports that hand committed domain events to
// the projection service.
package publisher

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/logger"
)

// Log writes every event to the structured log. It is the default transport for
// local runs where no broker is available.
type Log struct {
	logger *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{logger: log.Named("events")}
}

func (p *Log) Publish(ctx context.Context, evt *domain.Event) error {
	if evt == nil {
		return domain.ErrInvalidPayload
	}
	logger.WithRequestID(ctx, p.logger).Info("domain event",
		zap.String("event_id", evt.Data.ID),
		zap.String("event_type", evt.Type()),
		zap.String("aggregate_id", evt.AggregateID()),
		zap.Time("occurred_on", evt.Data.OccurredOn),
		zap.Any("attributes", evt.Data.Attributes),
		zap.Any("metadata", evt.Metadata),
	)
	return nil
}
