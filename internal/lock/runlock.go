package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vacation-rental-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLock guards a named job so that at most one run is active at a time.
// TryAcquire never waits: acquired is false when another run holds the lock.
type RunLock interface {
	TryAcquire(ctx context.Context, name string) (release func(), acquired bool, err error)
}

// LocalRunLock is an in-process RunLock.
type LocalRunLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{held: make(map[string]bool)}
}

func (l *LocalRunLock) TryAcquire(ctx context.Context, name string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, true, nil
}

// releaseScript deletes the key only if it still carries our token, so a run
// that outlived its TTL cannot release a lock taken by a newer run.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLock shares a RunLock between processes, e.g. the API server's manual
// trigger and the cronjob runner.
type RedisRunLock struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisRunLock(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisRunLock) TryAcquire(ctx context.Context, name string) (func(), bool, error) {
	key := l.prefix + name
	token := uuid.NewString()

	logger.ExternalServiceCall("redis", "SETNX", "key", key)
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	logger.ExternalServiceResult("redis", "SETNX", err, "key", key, "acquired", ok)
	if err != nil {
		return nil, false, fmt.Errorf("acquire run lock %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	return func() {
		// The caller's context may already be cancelled when the run ends.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Error("Failed to release run lock", "key", key, "error", err)
		}
	}, true, nil
}

// Chain acquires every lock in order and releases them in reverse. If a later
// lock is busy or fails, the earlier ones are released before returning.
func Chain(locks ...RunLock) RunLock {
	return chain(locks)
}

type chain []RunLock

func (c chain) TryAcquire(ctx context.Context, name string) (func(), bool, error) {
	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		release, ok, err := l.TryAcquire(ctx, name)
		if err != nil || !ok {
			releaseAll()
			return nil, false, err
		}
		releases = append(releases, release)
	}
	return releaseAll, true, nil
}
