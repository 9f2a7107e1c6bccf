package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(7)
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestLocalRunLock(t *testing.T) {
	l := NewLocalRunLock()
	ctx := context.Background()

	release, ok, err := l.TryAcquire(ctx, "sweep")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryAcquire(ctx, "sweep")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = l.TryAcquire(ctx, "report")
	assert.True(t, ok, "different names are independent")

	release()
	_, ok, _ = l.TryAcquire(ctx, "sweep")
	assert.True(t, ok)
}

type stubLock struct {
	ok       bool
	err      error
	released int
}

func (s *stubLock) TryAcquire(ctx context.Context, name string) (func(), bool, error) {
	if s.err != nil || !s.ok {
		return nil, false, s.err
	}
	return func() { s.released++ }, true, nil
}

func TestChain_ReleasesEarlierLocksWhenLaterIsBusy(t *testing.T) {
	first := &stubLock{ok: true}
	second := &stubLock{ok: false}

	_, ok, err := Chain(first, second).TryAcquire(context.Background(), "sweep")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, first.released)
}

func TestChain_PropagatesError(t *testing.T) {
	first := &stubLock{ok: true}
	second := &stubLock{err: assert.AnError}

	_, ok, err := Chain(first, second).TryAcquire(context.Background(), "sweep")
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, ok)
	assert.Equal(t, 1, first.released)
}

func TestChain_AllAcquired(t *testing.T) {
	first := &stubLock{ok: true}
	second := &stubLock{ok: true}

	release, ok, err := Chain(first, second).TryAcquire(context.Background(), "sweep")
	require.NoError(t, err)
	require.True(t, ok)
	release()
	assert.Equal(t, 1, first.released)
	assert.Equal(t, 1, second.released)
}
