package publisher

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/internal/config"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events to a single topic keyed by aggregate id, so every
// event of one aggregate lands on the same partition in order.
type Kafka struct {
	writer MessageWriter
}

// NewKafkaWriter builds a synchronous writer with a hash balancer.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
}

func NewKafka(writer MessageWriter) *Kafka {
	return &Kafka{writer: writer}
}

func (p *Kafka) Publish(ctx context.Context, evt *domain.Event) error {
	if evt == nil {
		return domain.ErrInvalidPayload
	}
	value, err := evt.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.AggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(evt.Data.ID)},
			{Key: "event-type", Value: []byte(evt.Type())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (p *Kafka) Close() error {
	return p.writer.Close()
}
