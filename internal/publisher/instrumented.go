package publisher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/usecase"
)

// Metrics counts publish outcomes per transport and event type.
type Metrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// NewMetrics registers the publisher collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdesk",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events handed off to a transport.",
		}, []string{"transport", "event_type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdesk",
			Subsystem: "events",
			Name:      "publish_errors_total",
			Help:      "Failed publish attempts.",
		}, []string{"transport", "event_type"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bizdesk",
			Subsystem: "events",
			Name:      "publish_duration_seconds",
			Help:      "Time spent handing an event to a transport.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"transport"}),
	}
	reg.MustRegister(m.published, m.failed, m.latency)
	return m
}

// Instrumented wraps a transport and records Metrics for every call.
type Instrumented struct {
	next      usecase.EventPublisher
	transport string
	metrics   *Metrics
}

func NewInstrumented(next usecase.EventPublisher, transport string, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, transport: transport, metrics: metrics}
}

func (p *Instrumented) Publish(ctx context.Context, evt *domain.Event) error {
	start := time.Now()
	err := p.next.Publish(ctx, evt)
	p.metrics.latency.WithLabelValues(p.transport).Observe(time.Since(start).Seconds())

	eventType := evt.Type()
	if err != nil {
		p.metrics.failed.WithLabelValues(p.transport, eventType).Inc()
		return err
	}
	p.metrics.published.WithLabelValues(p.transport, eventType).Inc()
	return nil
}
