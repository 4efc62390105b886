package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

var ErrInvalidJob = errors.New("invalid notification job")

// PublishError reports a job that was not accepted by the queue.
type PublishError struct {
	Queue string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s: %v", e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Publisher is what producer-side callers depend on.
type Publisher interface {
	Publish(ctx context.Context, job entity.Job) error
}

type EmailProducer struct {
	client   redis.Cmdable
	topology Topology
	hooks    Hooks

	mu       sync.Mutex
	declared bool
}

// NewEmailProducer constructs a Redis stream producer.
func NewEmailProducer(client redis.Cmdable, topology Topology, hooks Hooks) *EmailProducer {
	return &EmailProducer{client: client, topology: topology, hooks: hooks}
}

// Publish validates the job and appends it to the stream. It returns only
// after Redis has accepted the entry.
func (p *EmailProducer) Publish(ctx context.Context, job entity.Job) error {
	err := p.publish(ctx, job)
	p.hooks.published(err)
	return err
}

func (p *EmailProducer) publish(ctx context.Context, job entity.Job) error {
	if err := job.Validate(); err != nil {
		return p.fail(fmt.Errorf("%w: %w", ErrInvalidJob, err))
	}

	payload, err := entity.EncodeJob(job)
	if err != nil {
		return p.fail(fmt.Errorf("encode job: %w", err))
	}

	if err := p.declare(ctx); err != nil {
		return p.fail(fmt.Errorf("declare queue: %w", err))
	}

	env := Envelope{
		RequestID: uuid.NewString(),
		Payload:   string(payload),
		Attempt:   1,
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.topology.Stream,
		Values: env.values(),
	}).Err(); err != nil {
		return p.fail(fmt.Errorf("xadd: %w", err))
	}
	return nil
}

// declare runs once per producer; a failed attempt is retried on the next publish.
func (p *EmailProducer) declare(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.declared {
		return nil
	}
	if err := declare(ctx, p.client, p.topology); err != nil {
		return err
	}
	p.declared = true
	return nil
}

func (p *EmailProducer) fail(err error) error {
	return &PublishError{Queue: p.topology.Stream, Err: err}
}
