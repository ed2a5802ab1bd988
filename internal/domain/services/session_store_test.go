package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap/internal/domain/models"
)

func TestMemorySessionStore_GetUnknown(t *testing.T) {
	store := NewMemorySessionStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestMemorySessionStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	sess := models.NewSession("s1", time.Unix(1700000000, 0))
	sess.Messages = append(sess.Messages, models.Message{Sender: "scammer", Text: "hello"})
	require.NoError(t, store.Save(ctx, sess))

	sess.Messages[0].Text = "mutated"

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Messages[0].Text)

	got.Messages[0].Text = "mutated again"
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Messages[0].Text)
	assert.Equal(t, 1, store.Len())
}

func TestMemorySessionStore_RejectsMissingID(t *testing.T) {
	store := NewMemorySessionStore()
	assert.Error(t, store.Save(context.Background(), &models.Session{}))
	assert.Error(t, store.Save(context.Background(), nil))
}

func TestMemoryLocker_SerializesSameKey(t *testing.T) {
	locker := NewMemoryLocker(time.Second)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "same")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locker.locks)
}

func TestMemoryLocker_TimesOut(t *testing.T) {
	locker := NewMemoryLocker(20 * time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "busy")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "busy")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	other, err := locker.Lock(ctx, "other")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := locker.Lock(ctx, "busy")
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_HonorsContext(t *testing.T) {
	locker := NewMemoryLocker(0)

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}
