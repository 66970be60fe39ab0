package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(lines ...order.OrderLine) *report.Session {
	return &report.Session{
		ID:        uuid.New(),
		Source:    order.RunSourceUpload,
		Lines:     lines,
		Stats:     order.ReconcileStats{Orders: 1, Lines: len(lines)},
		CreatedAt: time.Now(),
	}
}

func sampleLine() order.OrderLine {
	return order.OrderLine{
		OrderID:     "2024030112345",
		Status:      order.StatusPaid,
		ProductName: "Cream",
		OptionLabel: "50ml",
		Quantity:    2,
		LineAmount:  decimal.NewFromInt(50000),
		Source:      order.LineSourceEmbedded,
	}
}

func TestInMemorySessionStore_SaveGet(t *testing.T) {
	store := NewInMemorySessionStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	t.Run("returns saved session", func(t *testing.T) {
		s := newSession(sampleLine())
		require.NoError(t, store.Save(ctx, s, time.Hour))

		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, s.Lines, got.Lines)
		assert.Equal(t, s.Stats, got.Stats)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, report.ErrSessionNotFound)
	})

	t.Run("returned lines are a copy", func(t *testing.T) {
		s := newSession(sampleLine())
		require.NoError(t, store.Save(ctx, s, time.Hour))
		s.Lines[0].ProductName = "mutated"

		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cream", got.Lines[0].ProductName)

		got.Lines[0].ProductName = "mutated again"
		again, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cream", again.Lines[0].ProductName)
	})

	t.Run("delete", func(t *testing.T) {
		s := newSession()
		require.NoError(t, store.Save(ctx, s, time.Hour))
		require.NoError(t, store.Delete(ctx, s.ID))
		require.NoError(t, store.Delete(ctx, s.ID))

		_, err := store.Get(ctx, s.ID)
		assert.ErrorIs(t, err, report.ErrSessionNotFound)
	})
}

func TestInMemorySessionStore_TTL(t *testing.T) {
	store := NewInMemorySessionStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	store.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	expiring := newSession()
	forever := newSession()
	require.NoError(t, store.Save(ctx, expiring, 10*time.Minute))
	require.NoError(t, store.Save(ctx, forever, 0))

	advance(9 * time.Minute)
	_, err := store.Get(ctx, expiring.ID)
	assert.NoError(t, err)

	advance(time.Minute)
	_, err = store.Get(ctx, expiring.ID)
	assert.ErrorIs(t, err, report.ErrSessionNotFound)
	assert.Equal(t, 2, store.Size(), "expired entries stay until cleanup")

	store.cleanup()
	assert.Equal(t, 1, store.Size())
	_, err = store.Get(ctx, forever.ID)
	assert.NoError(t, err)
}

func TestInMemorySessionStore_CleanupLoop(t *testing.T) {
	store := NewInMemorySessionStore(10 * time.Millisecond)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), newSession(), time.Millisecond))
	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestInMemorySessionStore_Close(t *testing.T) {
	store := NewInMemorySessionStore(0)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "Close is idempotent")
}

func TestInMemorySessionStore_Concurrent(t *testing.T) {
	store := NewInMemorySessionStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := newSession(sampleLine())
			assert.NoError(t, store.Save(ctx, s, time.Hour))
			_, err := store.Get(ctx, s.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, store.Size())
}
