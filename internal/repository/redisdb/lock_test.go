package redisdb

import (
	"context"
	"testing"
	"time"
)

func TestLock_AcquireRelease(t *testing.T) {
	client, _ := newTestClient(t)
	lock := NewLock(client)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "lock:a", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("acquire = (%v, %v), want (true, nil)", acquired, err)
	}

	if held, _ := lock.IsHeld(ctx, "lock:a"); !held {
		t.Fatal("lock should be held after acquire")
	}

	// A second holder cannot acquire while the lock exists.
	other := NewLock(client)
	if acquired, _ := other.Acquire(ctx, "lock:a", time.Minute); acquired {
		t.Fatal("second acquire should fail while held")
	}

	released, err := lock.Release(ctx, "lock:a")
	if err != nil || !released {
		t.Fatalf("release = (%v, %v), want (true, nil)", released, err)
	}

	if held, _ := lock.IsHeld(ctx, "lock:a"); held {
		t.Error("lock should be free after release")
	}
}

func TestLock_ReleaseOnlyByHolder(t *testing.T) {
	client, _ := newTestClient(t)
	holder := NewLock(client)
	intruder := NewLock(client)
	ctx := context.Background()

	holder.Acquire(ctx, "lock:a", time.Minute)

	// The intruder never acquired, so it has no token to release with.
	released, err := intruder.Release(ctx, "lock:a")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released {
		t.Fatal("non-holder should not release the lock")
	}

	if held, _ := holder.IsHeld(ctx, "lock:a"); !held {
		t.Error("lock should survive a non-holder release attempt")
	}
}

func TestLock_StaleTokenCannotClobber(t *testing.T) {
	client, mr := newTestClient(t)
	first := NewLock(client)
	second := NewLock(client)
	ctx := context.Background()

	first.Acquire(ctx, "lock:a", time.Minute)
	mr.FastForward(2 * time.Minute)

	// The lock expired and a new holder took it.
	if acquired, _ := second.Acquire(ctx, "lock:a", time.Minute); !acquired {
		t.Fatal("acquire after expiry should succeed")
	}

	// The first holder's token no longer matches, so its release is a no-op.
	if released, _ := first.Release(ctx, "lock:a"); released {
		t.Error("stale holder should not release the new holder's lock")
	}
	if held, _ := second.IsHeld(ctx, "lock:a"); !held {
		t.Error("new holder's lock should survive")
	}
}

func TestLock_Extend(t *testing.T) {
	client, mr := newTestClient(t)
	lock := NewLock(client)
	ctx := context.Background()

	lock.Acquire(ctx, "lock:a", time.Minute)

	extended, err := lock.Extend(ctx, "lock:a", 5*time.Minute)
	if err != nil || !extended {
		t.Fatalf("extend = (%v, %v), want (true, nil)", extended, err)
	}

	mr.FastForward(2 * time.Minute)
	if held, _ := lock.IsHeld(ctx, "lock:a"); !held {
		t.Error("lock should still be held after extend")
	}

	// Extending without ever acquiring fails.
	other := NewLock(client)
	if extended, _ := other.Extend(ctx, "lock:a", time.Minute); extended {
		t.Error("non-holder extend should fail")
	}
}

func TestLock_AcquireWithRetry(t *testing.T) {
	client, _ := newTestClient(t)
	holder := NewLock(client)
	waiter := NewLock(client)
	ctx := context.Background()

	holder.Acquire(ctx, "lock:a", time.Minute)

	go func() {
		time.Sleep(30 * time.Millisecond)
		holder.Release(context.Background(), "lock:a")
	}()

	acquired, err := waiter.AcquireWithRetry(ctx, "lock:a", time.Minute, 20, 10*time.Millisecond)
	if err != nil || !acquired {
		t.Fatalf("AcquireWithRetry = (%v, %v), want (true, nil)", acquired, err)
	}
}
