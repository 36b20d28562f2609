package outbox

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/bizdesk/domain"
)

func openStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "outbox.db"), "", maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func item(t *testing.T, aggregateID string, at time.Time) Item {
	t.Helper()
	evt := domain.NewLeadCreated(&domain.Lead{ID: aggregateID}, at, nil)
	it, err := NewItem(evt)
	require.NoError(t, err)
	it.Timestamp = at
	return it
}

func TestStoreKeepsEnqueueOrder(t *testing.T) {
	store := openStore(t, 0)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// enqueue order wins over timestamps
	require.NoError(t, store.Enqueue(item(t, "L2", base.Add(time.Second))))
	require.NoError(t, store.Enqueue(item(t, "L1", base)))
	require.NoError(t, store.Enqueue(item(t, "L3", base.Add(2*time.Second))))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	batch, err := store.GetBatch(2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "L2", batch[0].AggregateID)
	assert.Equal(t, "L1", batch[1].AggregateID)

	evt, err := batch[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, domain.EventLeadCreated, evt.Type())
	assert.Equal(t, "L2", evt.AggregateID())
	assert.Equal(t, batch[0].ID, evt.Data.ID)
}

func TestStoreRemoveAndRequeue(t *testing.T) {
	store := openStore(t, 0)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := item(t, "L1", base)
	second := item(t, "L2", base.Add(time.Second))
	require.NoError(t, store.Enqueue(first))
	require.NoError(t, store.Enqueue(second))

	batch, err := store.GetBatch(10)
	require.NoError(t, err)
	head := batch[0]
	head.Retries++
	require.NoError(t, store.Requeue(head))

	batch, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "L2", batch[0].AggregateID)
	assert.Equal(t, "L1", batch[1].AggregateID)
	assert.Equal(t, 1, batch[1].Retries)

	require.NoError(t, store.Remove(batch[0]))
	// items without a bucket key are removed by id
	require.NoError(t, store.Remove(Item{ID: first.ID}))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestStoreMaxSize(t *testing.T) {
	store := openStore(t, 1)
	base := time.Now()
	require.NoError(t, store.Enqueue(item(t, "L1", base)))
	assert.ErrorIs(t, store.Enqueue(item(t, "L2", base.Add(time.Millisecond))), ErrFull)
}

func TestStoreMaxSizeFreesAfterRemove(t *testing.T) {
	store := openStore(t, 3)
	base := time.Now()
	for i, id := range []string{"L1", "L2", "L3"} {
		require.NoError(t, store.Enqueue(item(t, id, base.Add(time.Duration(i)*time.Millisecond))))
	}
	assert.ErrorIs(t, store.Enqueue(item(t, "L4", base.Add(time.Second))), ErrFull)

	batch, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NoError(t, store.Remove(batch[0]))

	require.NoError(t, store.Enqueue(item(t, "L4", base.Add(time.Second))))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestStoreCleanup(t *testing.T) {
	store := openStore(t, 0)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old-1", "old-2", "fresh"} {
		at := base.Add(time.Duration(i) * time.Hour)
		if id == "fresh" {
			at = base.Add(48 * time.Hour)
		}
		require.NoError(t, store.Enqueue(item(t, id, at)))
	}

	removed, err := store.Cleanup(base.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	batch, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "fresh", batch[0].AggregateID)
}

func TestEnqueueRejectsItemWithoutID(t *testing.T) {
	store := openStore(t, 0)
	assert.Error(t, store.Enqueue(Item{}))

	_, err := NewItem(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestClosedStore(t *testing.T) {
	var store *Store
	_, err := store.Size()
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}
