package lock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLocker_AcquireRelease(t *testing.T) {
	locker := NewMemoryLocker()
	defer locker.Stop()
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, "key1", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("acquire = (%v, %v), want (true, nil)", acquired, err)
	}

	// Second acquire on the same key fails while held.
	acquired, err = locker.Acquire(ctx, "key1", time.Minute)
	if err != nil || acquired {
		t.Fatalf("second acquire = (%v, %v), want (false, nil)", acquired, err)
	}

	// Different key is independent.
	acquired, _ = locker.Acquire(ctx, "key2", time.Minute)
	if !acquired {
		t.Fatal("different key should acquire")
	}

	released, err := locker.Release(ctx, "key1")
	if err != nil || !released {
		t.Fatalf("release = (%v, %v), want (true, nil)", released, err)
	}

	acquired, _ = locker.Acquire(ctx, "key1", time.Minute)
	if !acquired {
		t.Fatal("acquire after release should succeed")
	}
}

func TestMemoryLocker_TTLExpiry(t *testing.T) {
	locker := NewMemoryLocker()
	defer locker.Stop()
	ctx := context.Background()

	if acquired, _ := locker.Acquire(ctx, "short", 20*time.Millisecond); !acquired {
		t.Fatal("initial acquire failed")
	}

	time.Sleep(40 * time.Millisecond)

	held, err := locker.IsHeld(ctx, "short")
	if err != nil || held {
		t.Fatalf("IsHeld after expiry = (%v, %v), want (false, nil)", held, err)
	}

	if acquired, _ := locker.Acquire(ctx, "short", time.Minute); !acquired {
		t.Fatal("acquire after expiry should succeed")
	}
}

func TestMemoryLocker_Extend(t *testing.T) {
	locker := NewMemoryLocker()
	defer locker.Stop()
	ctx := context.Background()

	locker.Acquire(ctx, "key", 50*time.Millisecond)

	extended, err := locker.Extend(ctx, "key", time.Minute)
	if err != nil || !extended {
		t.Fatalf("extend = (%v, %v), want (true, nil)", extended, err)
	}

	time.Sleep(80 * time.Millisecond)
	if held, _ := locker.IsHeld(ctx, "key"); !held {
		t.Fatal("lock should still be held after extend")
	}

	// Extending a lock that nobody holds fails.
	if extended, _ := locker.Extend(ctx, "missing", time.Minute); extended {
		t.Fatal("extend of unheld lock should fail")
	}
}

func TestMemoryLocker_AcquireWithRetry(t *testing.T) {
	locker := NewMemoryLocker()
	defer locker.Stop()
	ctx := context.Background()

	locker.Acquire(ctx, "contended", 30*time.Millisecond)

	// Retries outlast the holder's TTL.
	acquired, err := locker.AcquireWithRetry(ctx, "contended", time.Minute, 10, 10*time.Millisecond)
	if err != nil || !acquired {
		t.Fatalf("AcquireWithRetry = (%v, %v), want (true, nil)", acquired, err)
	}
}

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	locker := NewMemoryLocker()
	defer locker.Stop()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		current int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, err := locker.AcquireWithRetry(ctx, "critical", time.Second, 100, time.Millisecond)
			if err != nil || !acquired {
				t.Errorf("worker failed to acquire: %v", err)
				return
			}
			defer locker.Release(ctx, "critical")

			mu.Lock()
			current++
			if current > maxSeen {
				maxSeen = current
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
}
