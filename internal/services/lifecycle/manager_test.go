package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"mongo", "outbox", "http_server"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.Register("ignored", nil)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http_server", "outbox", "mongo"}, order)
}

func TestShutdownJoinsErrorsAndContinues(t *testing.T) {
	m := New(time.Second, nil)
	kafkaErr := errors.New("writer closed twice")

	closed := false
	m.Register("mongo", func(context.Context) error {
		closed = true
		return nil
	})
	m.Register("kafka", func(context.Context) error { return kafkaErr })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, kafkaErr)
	assert.Contains(t, err.Error(), "kafka")
	assert.True(t, closed)
}

func TestShutdownAppliesTimeout(t *testing.T) {
	m := New(20*time.Millisecond, nil)

	var deadline time.Time
	m.Register("relay", func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	assert.WithinDuration(t, time.Now().Add(20*time.Millisecond), deadline, 50*time.Millisecond)
}

func TestShutdownIsOneShot(t *testing.T) {
	m := New(time.Second, nil)
	calls := 0
	m.Register("nats", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestComponentsInShutdownOrder(t *testing.T) {
	m := New(0, nil)
	noop := func(context.Context) error { return nil }
	m.Register("mongo", noop)
	m.Register("monitor", noop)

	assert.Equal(t, []string{"monitor", "mongo"}, m.Components())
}
