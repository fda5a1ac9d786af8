package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ventra/catalog-server/internal/repository"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("hello"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("got %q, want %q", got, "hello")
	}

	// Stored values are copies; mutating the returned slice must not
	// alter the cache.
	got[0] = 'X'
	again, _ := c.Get(ctx, "k")
	if !bytes.Equal(again, []byte("hello")) {
		t.Errorf("cache value mutated through returned slice: %q", again)
	}
}

func TestCache_GetMissing(t *testing.T) {
	c := NewCache()
	defer c.Stop()

	_, err := c.Get(context.Background(), "absent")
	if !errors.Is(err, repository.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	c.Set(ctx, "short", []byte("v"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, repository.ErrCacheMiss) {
		t.Errorf("expired key returned err = %v, want ErrCacheMiss", err)
	}
	if exists, _ := c.Exists(ctx, "short"); exists {
		t.Error("expired key should not exist")
	}
}

func TestCache_SetNX(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", []byte("first"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX = (%v, %v), want (true, nil)", ok, err)
	}

	ok, _ = c.SetNX(ctx, "k", []byte("second"), time.Minute)
	if ok {
		t.Fatal("SetNX on existing key should fail")
	}

	got, _ := c.Get(ctx, "k")
	if !bytes.Equal(got, []byte("first")) {
		t.Errorf("got %q, want original value", got)
	}

	// Expired entries don't block SetNX.
	c.Set(ctx, "stale", []byte("old"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if ok, _ := c.SetNX(ctx, "stale", []byte("fresh"), time.Minute); !ok {
		t.Error("SetNX should succeed over expired entry")
	}
}

func TestCache_Delete(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, repository.ErrCacheMiss) {
		t.Error("key should be gone after delete")
	}

	// Deleting a missing key is a no-op.
	if err := c.Delete(ctx, "absent"); err != nil {
		t.Errorf("delete of absent key: %v", err)
	}
}

func TestCache_ExpireAndTTL(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	// ttl <= 0 means no expiry; TTL follows the Redis convention.
	c.Set(ctx, "forever", []byte("v"), 0)
	if ttl, _ := c.TTL(ctx, "forever"); ttl != -1 {
		t.Errorf("TTL of no-expiry key = %v, want -1", ttl)
	}

	if err := c.Expire(ctx, "forever", time.Minute); err != nil {
		t.Fatalf("expire: %v", err)
	}
	ttl, _ := c.TTL(ctx, "forever")
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL after Expire = %v, want (0, 1m]", ttl)
	}

	if ttl, _ := c.TTL(ctx, "absent"); ttl != -2 {
		t.Errorf("TTL of missing key = %v, want -2", ttl)
	}
}
