package queue

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/lock"
)

// requeue appends a due retry to the stream and removes it from the retry set
// in one step. The member stays on the set when XADD fails, and nothing is
// written when the member is already gone.
var requeue = redis.NewScript(`
if not redis.call("ZSCORE", KEYS[1], ARGV[1]) then
	return false
end
local id = redis.call("XADD", KEYS[2], "*", unpack(ARGV, 2))
redis.call("ZREM", KEYS[1], ARGV[1])
return id
`)

const (
	retryBatch   = 100
	retryLockTTL = 30 * time.Second
)

// RetryScheduler moves retries whose backoff has elapsed from the retry set
// back onto the stream.
type RetryScheduler struct {
	client   redis.Cmdable
	topology Topology
	locker   lock.Locker
	interval time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewRetryScheduler builds a scheduler polling every interval.
func NewRetryScheduler(client redis.Cmdable, topology Topology, locker lock.Locker, interval time.Duration, logger logrus.FieldLogger) *RetryScheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &RetryScheduler{
		client:   client,
		topology: topology,
		locker:   locker,
		interval: interval,
		logger:   logger.WithField("component", "retry-scheduler"),
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (s *RetryScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval.String()).Info("Retry scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retry scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.logger.WithError(err).Error("Retry poll failed")
			}
		}
	}
}

// Tick moves every due retry while holding the scheduler lock and returns
// how many entries were re-enqueued. Another instance holding the lock is
// not an error.
func (s *RetryScheduler) Tick(ctx context.Context) (int, error) {
	moved := 0
	err := lock.WithLock(ctx, s.locker, "retry:"+s.topology.Stream, retryLockTTL, func(ctx context.Context) error {
		var err error
		moved, err = s.moveDue(ctx)
		return err
	})
	if errors.Is(err, lock.ErrNotAcquired) || errors.Is(err, lock.ErrAlreadyHeld) {
		return 0, nil
	}
	if moved > 0 {
		s.logger.WithField("count", moved).Info("Re-enqueued due retries")
	}
	return moved, err
}

func (s *RetryScheduler) moveDue(ctx context.Context) (int, error) {
	now := s.now().UnixMilli()
	members, err := s.client.ZRangeByScore(ctx, s.topology.RetrySet(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: retryBatch,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range members {
		env, err := decodeRetry(member)
		if err != nil {
			if err := s.client.ZRem(ctx, s.topology.RetrySet(), member).Err(); err != nil {
				return moved, err
			}
			s.logger.WithError(err).Error("Dropping unreadable retry entry")
			continue
		}

		keys := []string{s.topology.RetrySet(), s.topology.Stream}
		err = requeue.Run(ctx, s.client, keys, append([]interface{}{member}, env.fields()...)...).Err()
		if errors.Is(err, redis.Nil) {
			// Another scheduler moved it first.
			continue
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
