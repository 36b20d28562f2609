package publisher

import (
	"context"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/bizdesk/domain"
)

// StreamAdder is satisfied by *redis.Client.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redislib.XAddArgs) *redislib.StringCmd
}

// RedisStream appends events to a capped Redis stream.
type RedisStream struct {
	client StreamAdder
	stream string
	maxLen int64
}

func NewRedisStream(client StreamAdder, stream string, maxLen int64) *RedisStream {
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStream) Publish(ctx context.Context, evt *domain.Event) error {
	if evt == nil {
		return domain.ErrInvalidPayload
	}
	data, err := evt.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	args := &redislib.XAddArgs{
		Stream: p.stream,
		ID:     "*",
		Values: map[string]interface{}{
			"event_id":     evt.Data.ID,
			"event_type":   evt.Type(),
			"aggregate_id": evt.AggregateID(),
			"payload":      string(data),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to add event to stream %s: %w", p.stream, err)
	}
	return nil
}
