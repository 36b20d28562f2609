package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// Check is a named dependency probe. Critical checks decide IsOnline.
type Check struct {
	Name     string
	Ping     PingFunc
	Timeout  time.Duration
	Critical bool
}

// SizeReporter reports the local outbox depth.
type SizeReporter interface {
	Size() (int, error)
}

type Monitor struct {
	checks []Check
	outbox SizeReporter

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(checks []Check, outbox SizeReporter, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		outbox:   outbox,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every critical dependency answered the last probe.
// Before the first probe it reports false.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status.LastCheck.IsZero() {
		return false
	}
	for _, c := range m.checks {
		if c.Critical && !m.status.Components[c.Name] {
			return false
		}
	}
	return true
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Components = make(map[string]bool, len(m.status.Components))
	for k, v := range m.status.Components {
		out.Components[k] = v
	}
	return out
}

// Refresh probes every dependency once.
func (m *Monitor) Refresh(ctx context.Context) {
	components := make(map[string]bool, len(m.checks))
	for _, c := range m.checks {
		components[c.Name] = m.probe(ctx, c)
	}
	outboxOK, outboxSize := m.checkOutbox()

	status := Status{
		Components: components,
		Outbox:     outboxOK,
		OutboxSize: outboxSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) probe(ctx context.Context, c Check) bool {
	if c.Ping == nil {
		return false
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		m.logger.Warn("dependency check failed", zap.String("component", c.Name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.outbox == nil {
		return false, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
