package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	t.Parallel()

	mr, client := newClient(t)
	ctx := context.Background()

	a := NewRedisLocker(client)
	b := NewRedisLocker(client)

	if err := a.Acquire(ctx, "retry", time.Minute); err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	if !mr.Exists(keyPrefix + "retry") {
		t.Fatalf("expected prefixed lock key")
	}
	if err := b.Acquire(ctx, "retry", time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	if err := a.Release(ctx, "retry"); err != nil {
		t.Fatalf("Release a: %v", err)
	}
	if err := b.Acquire(ctx, "retry", time.Minute); err != nil {
		t.Fatalf("Acquire b after release: %v", err)
	}
	if err := b.Release(ctx, "retry"); err != nil {
		t.Fatalf("Release b: %v", err)
	}
}

func TestRedisLockerAlreadyHeld(t *testing.T) {
	t.Parallel()

	_, client := newClient(t)
	l := NewRedisLocker(client)

	if err := l.Acquire(context.Background(), "retry", time.Minute); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Acquire(context.Background(), "retry", time.Minute); !errors.Is(err, ErrAlreadyHeld) {
		t.Fatalf("expected ErrAlreadyHeld, got %v", err)
	}
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	t.Parallel()

	mr, client := newClient(t)
	ctx := context.Background()

	a := NewRedisLocker(client)
	if err := a.Acquire(ctx, "retry", time.Second); err != nil {
		t.Fatalf("Acquire a: %v", err)
	}

	// a's lease expires and b takes over before a releases.
	mr.FastForward(2 * time.Second)
	b := NewRedisLocker(client)
	if err := b.Acquire(ctx, "retry", time.Minute); err != nil {
		t.Fatalf("Acquire b: %v", err)
	}

	if err := a.Release(ctx, "retry"); err != nil {
		t.Fatalf("Release a: %v", err)
	}
	if !mr.Exists(keyPrefix + "retry") {
		t.Fatalf("expected b's lock to survive a's release")
	}
}

func TestWithLock(t *testing.T) {
	t.Parallel()

	mr, client := newClient(t)
	ctx := context.Background()
	l := NewRedisLocker(client)

	called := false
	err := WithLock(ctx, l, "tick", time.Minute, func(context.Context) error {
		called = true
		if !mr.Exists(keyPrefix + "tick") {
			t.Errorf("expected lock held inside fn")
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("WithLock: called=%v err=%v", called, err)
	}
	if mr.Exists(keyPrefix + "tick") {
		t.Fatalf("expected lock released after fn")
	}

	other := NewRedisLocker(client)
	if err := other.Acquire(ctx, "tick", time.Minute); err != nil {
		t.Fatalf("Acquire other: %v", err)
	}
	err = WithLock(ctx, l, "tick", time.Minute, func(context.Context) error {
		t.Errorf("fn must not run without the lock")
		return nil
	})
	if !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}
