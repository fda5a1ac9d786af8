package redisdb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ventra/catalog-server/internal/repository"
)

// Lock implements repository.DistributedLock using Redis SET NX with
// per-holder tokens. Release and Extend are token-checked through Lua so a
// holder whose lock already expired cannot clobber a newer owner.
type Lock struct {
	client *Client
	tokens tokenStore
}

// NewLock creates a Redis-backed distributed lock.
func NewLock(client *Client) *Lock {
	return &Lock{client: client}
}

// tokenStore remembers the token this process holds for each key.
type tokenStore struct {
	mu sync.Mutex
	m  map[string]string
}

func (t *tokenStore) get(key string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m[key]
}

func (t *tokenStore) set(key, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m == nil {
		t.m = make(map[string]string)
	}
	t.m[key] = token
}

func (t *tokenStore) clear(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, key)
}

// releaseScript deletes the key only when the stored token matches.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript refreshes the TTL only when the stored token matches.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Acquire attempts to acquire a lock.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.tokens.set(key, token)
	}
	return ok, nil
}

// AcquireWithRetry attempts to acquire a lock with retries.
func (l *Lock) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	for i := 0; i <= maxRetries; i++ {
		acquired, err := l.Acquire(ctx, key, ttl)
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		if i < maxRetries {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return false, nil
}

// Release releases a lock held by this process.
func (l *Lock) Release(ctx context.Context, key string) (bool, error) {
	token := l.tokens.get(key)
	if token == "" {
		return false, nil
	}
	l.tokens.clear(key)

	n, err := releaseScript.Run(ctx, l.client.rdb, []string{key}, token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Extend extends the TTL of a lock held by this process.
func (l *Lock) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := l.tokens.get(key)
	if token == "" {
		return false, nil
	}

	n, err := extendScript.Run(ctx, l.client.rdb, []string{key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IsHeld checks if the lock key currently exists.
func (l *Lock) IsHeld(ctx context.Context, key string) (bool, error) {
	n, err := l.client.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ensure Lock implements repository.DistributedLock.
var _ repository.DistributedLock = (*Lock)(nil)
