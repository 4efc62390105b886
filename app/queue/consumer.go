package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	"github.com/vibast-solutions/ms-go-mailqueue/app/service"
	"github.com/vibast-solutions/ms-go-mailqueue/app/templates"
)

// Policy decides what happens to an entry whose delivery failed.
type Policy string

const (
	// PolicyAck logs send failures and acknowledges the entry anyway.
	PolicyAck Policy = "ack"
	// PolicyDeadLetter retries send failures with backoff and parks
	// entries that cannot be delivered on the dead-letter stream.
	PolicyDeadLetter Policy = "dead-letter"
)

// ParsePolicy accepts "ack" (or empty) and "dead-letter".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAck:
		return PolicyAck, nil
	case PolicyDeadLetter:
		return PolicyDeadLetter, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

const (
	reasonDecode           = "decode_error"
	reasonTemplateNotFound = "template_not_found"
	reasonSendFailed       = "send_failed"
	reasonDeliveryLimit    = "delivery_limit"

	pendingID   = "0"
	newOnlyID   = ">"
	readBackoff = time.Second
	claimBatch  = 100
)

var errDeliveryLimit = errors.New("entry delivered too many times")

// Deliverer renders and sends one job.
type Deliverer interface {
	Deliver(ctx context.Context, job entity.Job) error
}

type ConsumerConfig struct {
	Name           string
	BlockTimeout   time.Duration
	ProcessTimeout time.Duration
	Policy         Policy
	MaxAttempts    int
	Backoff        []time.Duration

	// Entries another consumer has held for ClaimMinIdle are taken over every
	// ClaimInterval. Entries already delivered MaxDeliveries times are only
	// taken over to be dead-lettered, and are left alone under PolicyAck.
	ClaimMinIdle  time.Duration
	ClaimInterval time.Duration
	MaxDeliveries int
}

type EmailConsumer struct {
	client    redis.Cmdable
	topology  Topology
	deliverer Deliverer
	cfg       ConsumerConfig
	logger    logrus.FieldLogger
	hooks     Hooks
	now       func() time.Time
}

// NewEmailConsumer constructs a Redis stream consumer.
func NewEmailConsumer(client redis.Cmdable, topology Topology, deliverer Deliverer, cfg ConsumerConfig, logger logrus.FieldLogger, hooks Hooks) *EmailConsumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAck
	}
	if cfg.ClaimMinIdle <= 0 {
		cfg.ClaimMinIdle = 2 * cfg.ProcessTimeout
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = cfg.ClaimMinIdle
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 5
	}
	return &EmailConsumer{
		client:    client,
		topology:  topology,
		deliverer: deliverer,
		cfg:       cfg,
		logger:    logger.WithFields(logrus.Fields{"component": "consumer", "consumer": cfg.Name}),
		hooks:     hooks,
		now:       time.Now,
	}
}

// Run consumes entries until ctx is cancelled. Entries still pending for this
// consumer are read first, then new ones. Between reads of new entries, stale
// entries held by other consumers are claimed. Cancellation stops further
// reads; the entry being processed finishes before Run returns.
func (c *EmailConsumer) Run(ctx context.Context) error {
	if err := declare(ctx, c.client, c.topology); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.topology.Stream, err)
	}

	c.logger.WithField("stream", c.topology.Stream).Info("Email consumer running")

	startID := pendingID
	var lastClaim time.Time
	for {
		if ctx.Err() != nil {
			c.logger.Info("Email consumer stopped")
			return nil
		}

		if startID == newOnlyID && c.now().Sub(lastClaim) >= c.cfg.ClaimInterval {
			lastClaim = c.now()
			c.claimStale(ctx)
			continue
		}

		args := &redis.XReadGroupArgs{
			Group:    c.topology.Group,
			Consumer: c.cfg.Name,
			Streams:  []string{c.topology.Stream, startID},
			Count:    1,
			Block:    c.cfg.BlockTimeout,
		}
		if startID != newOnlyID {
			args.Block = -1
		}

		streams, err := c.client.XReadGroup(ctx, args).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				startID = newOnlyID
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			c.logger.WithError(err).Error("Failed to read from queue")
			select {
			case <-ctx.Done():
			case <-time.After(readBackoff):
			}
			continue
		}

		var messages []redis.XMessage
		for _, stream := range streams {
			messages = append(messages, stream.Messages...)
		}
		if len(messages) == 0 {
			startID = newOnlyID
			continue
		}

		for _, msg := range messages {
			c.processMessage(ctx, msg)
			// Pending entries that stay unacknowledged must not be read again
			// in this pass.
			if startID != newOnlyID {
				startID = msg.ID
			}
		}
	}
}

// claimStale takes over entries that other consumers have held longer than
// ClaimMinIdle, typically because they died mid-delivery, and processes them
// as if they had been read from the stream.
func (c *EmailConsumer) claimStale(ctx context.Context) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.topology.Stream,
		Group:  c.topology.Group,
		Idle:   c.cfg.ClaimMinIdle,
		Start:  "-",
		End:    "+",
		Count:  claimBatch,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			c.logger.WithError(err).Error("Failed to list stale queue entries")
		}
		return
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return
		}
		if p.Consumer == c.cfg.Name {
			continue
		}
		exhausted := p.RetryCount >= int64(c.cfg.MaxDeliveries)
		if exhausted && c.cfg.Policy != PolicyDeadLetter {
			continue
		}

		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.topology.Stream,
			Group:    c.topology.Group,
			Consumer: c.cfg.Name,
			MinIdle:  c.cfg.ClaimMinIdle,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.WithError(err).WithField("message_id", p.ID).Error("Failed to claim stale queue entry")
			}
			return
		}

		// Empty when another consumer claimed it first or the entry was trimmed.
		for _, msg := range msgs {
			log := c.logger.WithFields(logrus.Fields{
				"message_id":        msg.ID,
				"previous_consumer": p.Consumer,
				"deliveries":        p.RetryCount,
			})
			if exhausted {
				env := envelopeFromMessage(msg)
				outcome := c.deadLetter(ctx, msg.ID, env, reasonDeliveryLimit, errDeliveryLimit, log.WithField("request_id", env.RequestID))
				c.hooks.processed(outcome, 0)
				continue
			}
			log.Warn("Claimed stale email job")
			c.processMessage(ctx, msg)
		}
	}
}

// processMessage runs one entry to completion on a context detached from
// ctx's cancellation and bounded by the processing timeout.
func (c *EmailConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	started := c.now()
	env := envelopeFromMessage(msg)

	procCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ProcessTimeout)
	defer cancel()
	procCtx = service.WithRequestID(procCtx, env.RequestID)

	log := c.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"request_id": env.RequestID,
		"attempt":    env.Attempt,
	})

	outcome := c.handle(procCtx, msg.ID, env, log)
	c.hooks.processed(outcome, c.now().Sub(started))
}

func (c *EmailConsumer) handle(ctx context.Context, id string, env Envelope, log logrus.FieldLogger) Outcome {
	job, err := entity.DecodeJob([]byte(env.Payload))
	if err != nil {
		log.WithError(err).Error("Failed to decode email job")
		return c.reject(ctx, id, env, reasonDecode, err, log)
	}

	log = log.WithFields(logrus.Fields{"template": job.Template, "to": job.Recipient.Address})

	err = c.deliverer.Deliver(ctx, job)
	switch {
	case err == nil:
		if !c.ack(ctx, id, log) {
			return OutcomeBrokerError
		}
		log.WithField("subject", job.ResolvedSubject()).Info("Email sent")
		return OutcomeSent
	case errors.Is(err, templates.ErrTemplateNotFound):
		log.WithError(err).Error("Email template not found")
		return c.reject(ctx, id, env, reasonTemplateNotFound, err, log)
	case errors.Is(err, context.Canceled):
		// ctx itself is detached from cancellation, so this is only reached
		// when the deliverer reports its own cancellation.
		log.WithError(err).Warn("Email delivery interrupted, entry left pending")
		return OutcomeInterrupted
	default:
		log.WithError(err).Error("Email sending failed")
		return c.sendFailed(ctx, id, env, err, log)
	}
}

// reject handles entries that can never succeed. Under the ack policy they
// stay pending; under the dead-letter policy they are parked.
func (c *EmailConsumer) reject(ctx context.Context, id string, env Envelope, reason string, cause error, log logrus.FieldLogger) Outcome {
	if c.cfg.Policy != PolicyDeadLetter {
		return OutcomeRejected
	}
	return c.deadLetter(ctx, id, env, reason, cause, log)
}

func (c *EmailConsumer) sendFailed(ctx context.Context, id string, env Envelope, cause error, log logrus.FieldLogger) Outcome {
	if c.cfg.Policy != PolicyDeadLetter {
		if !c.ack(ctx, id, log) {
			return OutcomeBrokerError
		}
		return OutcomeFailed
	}
	if env.Attempt < c.cfg.MaxAttempts {
		return c.scheduleRetry(ctx, id, env, log)
	}
	return c.deadLetter(ctx, id, env, reasonSendFailed, cause, log)
}

func (c *EmailConsumer) ack(ctx context.Context, id string, log logrus.FieldLogger) bool {
	if err := c.client.XAck(ctx, c.topology.Stream, c.topology.Group, id).Err(); err != nil {
		log.WithError(err).Error("Failed to acknowledge queue entry")
		return false
	}
	return true
}

// scheduleRetry parks the next attempt on the retry set and acknowledges the
// original entry in one transaction.
func (c *EmailConsumer) scheduleRetry(ctx context.Context, id string, env Envelope, log logrus.FieldLogger) Outcome {
	delay := backoffFor(c.cfg.Backoff, env.Attempt)
	due := c.now().Add(delay)

	next := env
	next.Attempt = env.Attempt + 1
	next.SourceID = id
	next.ScheduledAt = due.UnixMilli()
	member, err := encodeRetry(next)
	if err != nil {
		log.WithError(err).Error("Failed to encode retry entry")
		return OutcomeBrokerError
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, c.topology.RetrySet(), redis.Z{Score: float64(due.UnixMilli()), Member: member})
		pipe.XAck(ctx, c.topology.Stream, c.topology.Group, id)
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to schedule email retry")
		return OutcomeBrokerError
	}

	c.hooks.retryScheduled()
	log.WithFields(logrus.Fields{"next_attempt": next.Attempt, "delay": delay.String()}).Info("Email retry scheduled")
	return OutcomeRetried
}

// deadLetter appends the entry to the dead-letter stream and acknowledges the
// original in one transaction.
func (c *EmailConsumer) deadLetter(ctx context.Context, id string, env Envelope, reason string, cause error, log logrus.FieldLogger) Outcome {
	values := env.values()
	values[FieldReason] = reason
	values[FieldError] = cause.Error()
	values[FieldSourceID] = id
	values[FieldFailedAt] = c.now().UTC().Format(time.RFC3339)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: c.topology.DeadLetterStream(), Values: values})
		pipe.XAck(ctx, c.topology.Stream, c.topology.Group, id)
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to dead-letter email job")
		return OutcomeBrokerError
	}

	c.hooks.deadLettered()
	log.WithField("reason", reason).Warn("Email job dead-lettered")
	return OutcomeDeadLettered
}
