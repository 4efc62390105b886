package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
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

func verificationJob() entity.Job {
	return entity.Job{
		Template:  entity.TemplateEmailVerificationRequest,
		Recipient: entity.Recipient{Address: "a@b.com", DisplayName: "Ann"},
		Content:   map[string]string{"recipientName": "Ann", "hash": "abc123"},
	}
}

func TestEmailProducerPublish(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	ctx := context.Background()
	topology := NewTopology("", "")

	var published []error
	producer := NewEmailProducer(client, topology, Hooks{Published: func(err error) { published = append(published, err) }})
	if err := producer.Publish(ctx, verificationJob()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(msgs))
	}

	env := envelopeFromMessage(msgs[0])
	if _, err := uuid.Parse(env.RequestID); err != nil {
		t.Fatalf("expected uuid request id, got %q", env.RequestID)
	}
	if env.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", env.Attempt)
	}
	job, err := entity.DecodeJob([]byte(env.Payload))
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}
	if job.Recipient != verificationJob().Recipient || job.Content["hash"] != "abc123" {
		t.Fatalf("unexpected job %+v", job)
	}

	err = client.XGroupCreateMkStream(ctx, DefaultStream, DefaultGroup, "0").Err()
	if err == nil || !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		t.Fatalf("expected consumer group declared by producer, got %v", err)
	}

	if len(published) != 1 || published[0] != nil {
		t.Fatalf("unexpected publish hook calls %v", published)
	}
}

func TestEmailProducerRejectsInvalidJob(t *testing.T) {
	t.Parallel()

	mr, client := newRedis(t)
	producer := NewEmailProducer(client, NewTopology("", ""), Hooks{})

	job := verificationJob()
	job.Recipient.Address = "not-an-address"

	err := producer.Publish(context.Background(), job)
	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected *PublishError, got %T", err)
	}
	if pubErr.Queue != DefaultStream {
		t.Fatalf("unexpected queue %q", pubErr.Queue)
	}
	if !errors.Is(err, ErrInvalidJob) || !errors.Is(err, entity.ErrInvalidRecipient) {
		t.Fatalf("expected invalid job error, got %v", err)
	}
	if mr.Exists(DefaultStream) {
		t.Fatalf("expected broker untouched")
	}
}

func TestEmailProducerUnknownTemplate(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	producer := NewEmailProducer(client, NewTopology("", ""), Hooks{})

	job := verificationJob()
	job.Template = "auth/nope"
	if err := producer.Publish(context.Background(), job); !errors.Is(err, entity.ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestEmailProducerBrokerUnavailable(t *testing.T) {
	t.Parallel()

	mr, client := newRedis(t)
	mr.Close()

	var published []error
	producer := NewEmailProducer(client, NewTopology("", ""), Hooks{Published: func(err error) { published = append(published, err) }})

	err := producer.Publish(context.Background(), verificationJob())
	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected *PublishError, got %v", err)
	}
	if errors.Is(err, ErrInvalidJob) {
		t.Fatalf("broker failure must not be reported as invalid job")
	}
	if len(published) != 1 || published[0] == nil {
		t.Fatalf("expected failed publish hook, got %v", published)
	}
}

func TestEmailProducerDeclaresOnce(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	ctx := context.Background()
	producer := NewEmailProducer(client, NewTopology("custom", "g"), Hooks{})

	for i := 0; i < 3; i++ {
		if err := producer.Publish(ctx, verificationJob()); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	if !producer.declared {
		t.Fatalf("expected producer to remember declaration")
	}
	if got := client.XLen(ctx, "custom").Val(); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
}
