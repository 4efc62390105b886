package queue

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DeadLetter is one entry parked on the dead-letter stream.
type DeadLetter struct {
	ID        string
	SourceID  string
	RequestID string
	Reason    string
	Error     string
	Attempt   int
	FailedAt  string
	Payload   string
}

// ListDeadLetters returns up to count dead-lettered entries, newest first.
func ListDeadLetters(ctx context.Context, client redis.Cmdable, topology Topology, count int64) ([]DeadLetter, error) {
	msgs, err := client.XRevRangeN(ctx, topology.DeadLetterStream(), "+", "-", count).Result()
	if err != nil {
		return nil, err
	}

	out := make([]DeadLetter, 0, len(msgs))
	for _, msg := range msgs {
		attempt, _ := strconv.Atoi(stringValue(msg.Values, FieldAttempt))
		out = append(out, DeadLetter{
			ID:        msg.ID,
			SourceID:  stringValue(msg.Values, FieldSourceID),
			RequestID: stringValue(msg.Values, FieldRequestID),
			Reason:    stringValue(msg.Values, FieldReason),
			Error:     stringValue(msg.Values, FieldError),
			Attempt:   attempt,
			FailedAt:  stringValue(msg.Values, FieldFailedAt),
			Payload:   stringValue(msg.Values, FieldPayload),
		})
	}
	return out, nil
}
