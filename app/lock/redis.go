package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mailqueue:lock:"

var release = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX lock with a per-acquisition owner token, so a
// holder can only release a key it still owns.
type RedisLocker struct {
	client redis.Cmdable
	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisLocker constructs a Redis-based lock manager.
func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{
		client: client,
		tokens: make(map[string]string),
	}
}

// Acquire sets the lock key with ttl if nobody holds it.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.tokens[key]; held {
		return ErrAlreadyHeld
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return ErrNotAcquired
	}
	l.tokens[key] = token
	return nil
}

// Release deletes the lock key when this locker still owns it.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, held := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !held {
		return nil
	}
	if err := release.Run(ctx, l.client, []string{keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
