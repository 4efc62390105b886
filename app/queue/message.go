package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "EmailQueue"
	DefaultGroup  = "email-consumers"
)

// Stream entry fields.
const (
	FieldRequestID = "request_id"
	FieldPayload   = "payload"
	FieldAttempt   = "attempt"
	FieldReason    = "reason"
	FieldError     = "error"
	FieldSourceID  = "source_id"
	FieldFailedAt  = "failed_at"
)

// Topology names the Redis keys backing one logical queue.
type Topology struct {
	Stream string
	Group  string
}

// NewTopology falls back to the default stream and group for empty names.
func NewTopology(stream, group string) Topology {
	if stream == "" {
		stream = DefaultStream
	}
	if group == "" {
		group = DefaultGroup
	}
	return Topology{Stream: stream, Group: group}
}

func (t Topology) DeadLetterStream() string {
	return t.Stream + ":dead-letter"
}

func (t Topology) RetrySet() string {
	return t.Stream + ":retry"
}

// declare creates the stream and consumer group. An existing group is not an error.
func declare(ctx context.Context, client redis.Cmdable, t Topology) error {
	err := client.XGroupCreateMkStream(ctx, t.Stream, t.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Envelope is one queue entry: the wire payload plus delivery metadata.
type Envelope struct {
	RequestID string `json:"request_id"`
	Payload   string `json:"payload"`
	Attempt   int    `json:"attempt"`

	// SourceID is the stream id the envelope was read from; set on retries.
	SourceID    string `json:"source_id,omitempty"`
	ScheduledAt int64  `json:"scheduled_at,omitempty"`
}

func (e Envelope) values() map[string]interface{} {
	return map[string]interface{}{
		FieldRequestID: e.RequestID,
		FieldPayload:   e.Payload,
		FieldAttempt:   strconv.Itoa(e.Attempt),
	}
}

// fields returns values() as an ordered XADD argument list.
func (e Envelope) fields() []interface{} {
	return []interface{}{
		FieldRequestID, e.RequestID,
		FieldPayload, e.Payload,
		FieldAttempt, strconv.Itoa(e.Attempt),
	}
}

func envelopeFromMessage(msg redis.XMessage) Envelope {
	env := Envelope{
		RequestID: stringValue(msg.Values, FieldRequestID),
		Payload:   stringValue(msg.Values, FieldPayload),
		Attempt:   1,
	}
	if n, err := strconv.Atoi(stringValue(msg.Values, FieldAttempt)); err == nil && n > 0 {
		env.Attempt = n
	}
	return env
}

func stringValue(values map[string]interface{}, key string) string {
	v, _ := values[key].(string)
	return v
}

func encodeRetry(env Envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRetry(member string) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal([]byte(member), &env)
	return env, err
}

// backoffFor returns the delay before the given (1-based) attempt is retried.
// Attempts past the end of the schedule reuse its last entry.
func backoffFor(schedule []time.Duration, attempt int) time.Duration {
	if len(schedule) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	return schedule[idx]
}
