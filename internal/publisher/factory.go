package publisher

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/internal/config"
	"github.com/fastygo/bizdesk/usecase"
)

// ErrMissingClient is returned when a configured transport has no client.
var ErrMissingClient = errors.New("publisher: transport client not configured")

// Clients carries the connections the transports publish through. Only the
// clients of configured transports need to be set.
type Clients struct {
	Kafka   MessageWriter
	NATS    MsgPublisher
	Redis   StreamAdder
	Journal Appender
	Logger  *zap.Logger
}

// Build assembles the configured transports, each wrapped with metrics. More
// than one transport yields a Fanout in configuration order.
func Build(cfg config.Config, clients Clients, metrics *Metrics) (usecase.EventPublisher, error) {
	transports := cfg.Events.Transports
	if len(transports) == 0 {
		transports = []string{config.TransportLog}
	}

	targets := make([]usecase.EventPublisher, 0, len(transports))
	for _, name := range transports {
		target, err := build(name, cfg, clients)
		if err != nil {
			return nil, err
		}
		if metrics != nil {
			target = NewInstrumented(target, name, metrics)
		}
		targets = append(targets, target)
	}
	if len(targets) == 1 {
		return targets[0], nil
	}
	return NewFanout(targets...), nil
}

func build(name string, cfg config.Config, clients Clients) (usecase.EventPublisher, error) {
	switch name {
	case config.TransportLog:
		return NewLog(clients.Logger), nil
	case config.TransportKafka:
		if clients.Kafka == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, name)
		}
		return NewKafka(clients.Kafka), nil
	case config.TransportNATS:
		if clients.NATS == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, name)
		}
		return NewNATS(clients.NATS, cfg.NATS.SubjectPrefix), nil
	case config.TransportRedis:
		if clients.Redis == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, name)
		}
		return NewRedisStream(clients.Redis, cfg.Events.RedisStream, cfg.Events.RedisMaxLen), nil
	case config.TransportJournal:
		if clients.Journal == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, name)
		}
		return NewJournal(clients.Journal), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTransport, name)
	}
}
