package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/internal/config"
	"github.com/fastygo/bizdesk/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/bizdesk/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/bizdesk/internal/infrastructure/redis"
	"github.com/fastygo/bizdesk/internal/publisher"
	"github.com/fastygo/bizdesk/internal/services/lifecycle"
	"github.com/fastygo/bizdesk/repository/postgres"
)

type transportDeps struct {
	clients publisher.Clients
	journal *postgres.Journal
	checks  []monitor.Check
}

// connectTransports opens a client for every configured event transport and
// registers its shutdown hook. Each client becomes a critical health check.
func connectTransports(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (transportDeps, error) {
	deps := transportDeps{clients: publisher.Clients{Logger: logger}}

	if cfg.NeedsPostgres() {
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return deps, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return deps, fmt.Errorf("postgres: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		})
		deps.journal = postgres.NewJournal(pool, cfg.Events.JournalTable)
		deps.clients.Journal = deps.journal
		deps.checks = append(deps.checks, monitor.Check{Name: "postgresql", Ping: pool.Ping, Critical: true})
	}

	if cfg.Events.Uses(config.TransportRedis) {
		client, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return deps, fmt.Errorf("redis: %w", err)
		}
		manager.Register("redis", func(context.Context) error {
			return client.Close()
		})
		deps.clients.Redis = client
		deps.checks = append(deps.checks, monitor.Check{
			Name:     "redis",
			Ping:     func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Critical: true,
		})
	}

	if cfg.Events.Uses(config.TransportKafka) {
		writer := publisher.NewKafkaWriter(cfg.Kafka)
		manager.Register("kafka", func(context.Context) error {
			return writer.Close()
		})
		deps.clients.Kafka = writer
		deps.checks = append(deps.checks, monitor.Check{Name: "kafka", Ping: kafkaPing(cfg.Kafka.Brokers), Critical: true})
		logger.Info("kafka writer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Events.Uses(config.TransportNATS) {
		conn, err := publisher.ConnectNATS(cfg.NATS.URL, cfg.AppName, cfg.NATS.MaxReconnects)
		if err != nil {
			return deps, fmt.Errorf("nats: %w", err)
		}
		manager.Register("nats", func(context.Context) error {
			return conn.Drain()
		})
		deps.clients.NATS = conn
		deps.checks = append(deps.checks, monitor.Check{Name: "nats", Ping: conn.FlushWithContext, Critical: true})
		logger.Info("connected to nats", zap.String("url", conn.ConnectedUrlRedacted()))
	}

	return deps, nil
}

func mongoCheck(client *mongodriver.Client) monitor.Check {
	return monitor.Check{
		Name:     "mongo",
		Ping:     func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Critical: true,
	}
}

// kafkaPing dials the first reachable broker.
func kafkaPing(brokers []string) monitor.PingFunc {
	return func(ctx context.Context) error {
		var lastErr error
		for _, broker := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", broker)
			if err != nil {
				lastErr = err
				continue
			}
			return conn.Close()
		}
		if lastErr == nil {
			lastErr = errors.New("no kafka brokers configured")
		}
		return lastErr
	}
}
