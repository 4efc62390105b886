package lock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyHeld = errors.New("lock already held by this process")
	ErrNotAcquired = errors.New("lock not acquired")
)

// Locker guards work that only one consumer instance may run at a time.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// WithLock runs fn while holding key. It returns ErrNotAcquired without
// calling fn when another holder owns the key.
func WithLock(ctx context.Context, l Locker, key string, ttl time.Duration, fn func(context.Context) error) error {
	if err := l.Acquire(ctx, key, ttl); err != nil {
		return err
	}
	defer func() {
		_ = l.Release(context.WithoutCancel(ctx), key)
	}()
	return fn(ctx)
}
