package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/internal/infrastructure/outbox"
	"github.com/fastygo/bizdesk/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// RelayConfig controls how frequently the outbox is drained.
type RelayConfig struct {
	Interval       time.Duration
	BatchSize      int
	MaxRetries     int
	RetentionHours int
}

// OutboxRelay drains the local outbox into the configured transports on a
// cron schedule. Delivery is at-least-once: an item is removed only after the
// transport accepted it.
type OutboxRelay struct {
	store     *outbox.Store
	monitor   ConnectionHealth
	publisher usecase.EventPublisher
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       RelayConfig
	pending   prometheus.GaugeFunc
	dropped   prometheus.Counter
}

func NewOutboxRelay(
	store *outbox.Store,
	monitor ConnectionHealth,
	publisher usecase.EventPublisher,
	logger *zap.Logger,
	cfg RelayConfig,
) *OutboxRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &OutboxRelay{
		store:     store,
		monitor:   monitor,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bizdesk",
			Subsystem: "outbox",
			Name:      "dropped_total",
			Help:      "Outbox items dropped after exhausting their retries.",
		}),
	}
	r.pending = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bizdesk",
		Subsystem: "outbox",
		Name:      "pending",
		Help:      "Events waiting in the local outbox.",
	}, func() float64 { return float64(r.Size()) })

	seconds := int(cfg.Interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	schedule := fmt.Sprintf("@every %ds", seconds)
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	if cfg.RetentionHours > 0 {
		_, _ = r.cron.AddFunc("@hourly", r.cleanup)
	}

	return r
}

// Collectors exposes the relay metrics for registration.
func (r *OutboxRelay) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.pending, r.dropped}
}

// Start launches the cron scheduler.
func (r *OutboxRelay) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("outbox relay started", zap.Duration("interval", r.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (r *OutboxRelay) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("outbox relay stopped")
}

// Drain publishes one batch synchronously. Failed items go to the back of the
// queue with their retry counter bumped and are dropped once it reaches MaxRetries.
func (r *OutboxRelay) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := r.relay(ctx, item); err != nil {
			r.logger.Error("failed to relay outbox item",
				zap.String("event_id", item.ID),
				zap.String("event_type", item.EventType),
				zap.String("aggregate_id", item.AggregateID),
				zap.Error(err))

			item.Retries++
			item.LastError = err.Error()
			if item.Retries >= r.cfg.MaxRetries {
				r.logger.Warn("dropping outbox item (max retries reached)",
					zap.String("event_id", item.ID),
					zap.Int("retries", item.Retries))
				r.dropped.Inc()
				_ = r.store.Remove(item)
				continue
			}
			if err := r.store.Requeue(item); err != nil {
				r.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := r.store.Remove(item); err != nil {
			r.logger.Warn("failed to purge relayed outbox item", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of pending items.
func (r *OutboxRelay) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (r *OutboxRelay) relay(ctx context.Context, item outbox.Item) error {
	evt, err := item.Decode()
	if err != nil {
		return fmt.Errorf("decode outbox item: %w", err)
	}
	return r.publisher.Publish(ctx, evt)
}

func (r *OutboxRelay) cleanup() {
	cutoff := time.Now().Add(-time.Duration(r.cfg.RetentionHours) * time.Hour)
	removed, err := r.store.Cleanup(cutoff)
	if err != nil {
		r.logger.Error("outbox cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		r.logger.Warn("expired outbox items removed", zap.Int("count", removed))
	}
}
