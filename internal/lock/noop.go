package lock

import (
	"context"
	"time"
)

// NoOpLocker grants every acquisition without tracking anything. The admin
// CLI uses it: a one-shot command has no concurrent signups to fence off.
type NoOpLocker struct{}

// NewNoOpLocker returns a locker that never contends.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

// Acquire reports the lock as acquired.
func (n *NoOpLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, ctx.Err()
}

// AcquireWithRetry reports the lock as acquired without retrying.
func (n *NoOpLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	return true, ctx.Err()
}

// Release reports the lock as released.
func (n *NoOpLocker) Release(ctx context.Context, key string) (bool, error) {
	return true, ctx.Err()
}

// Extend reports the lock as extended.
func (n *NoOpLocker) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, ctx.Err()
}

// IsHeld reports no lock held.
func (n *NoOpLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	return false, ctx.Err()
}

// Ensure NoOpLocker implements Locker.
var _ Locker = (*NoOpLocker)(nil)
