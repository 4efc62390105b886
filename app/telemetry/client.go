package telemetry

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCSink ships events to the logging service from a background goroutine.
// Emit never blocks: events are dropped when the buffer is full, and RPC
// errors are only reported on the local logger.
type GRPCSink struct {
	client  types.LoggingServiceClient
	closer  io.Closer
	timeout time.Duration
	logger  logrus.FieldLogger

	mu      sync.RWMutex
	closed  bool
	events  chan Event
	done    chan struct{}
	dropped atomic.Int64
}

// Dial connects lazily to the logging service at target.
func Dial(target string, timeout time.Duration, buffer int, logger logrus.FieldLogger) (*GRPCSink, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return NewGRPCSink(types.NewLoggingServiceClient(conn), conn, timeout, buffer, logger), nil
}

// NewGRPCSink starts the sender goroutine. logger must not forward back into
// this sink. closer may be nil.
func NewGRPCSink(client types.LoggingServiceClient, closer io.Closer, timeout time.Duration, buffer int, logger logrus.FieldLogger) *GRPCSink {
	if buffer <= 0 {
		buffer = 1
	}
	s := &GRPCSink{
		client:  client,
		closer:  closer,
		timeout: timeout,
		logger:  logger.WithField("component", "telemetry"),
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit queues the event or drops it when the buffer is full or the sink is closed.
func (s *GRPCSink) Emit(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns how many events never reached the send loop.
func (s *GRPCSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting events and waits for buffered ones to be sent, or
// for ctx to expire, before closing the connection.
func (s *GRPCSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-ctx.Done():
	}

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *GRPCSink) run() {
	defer close(s.done)
	for e := range s.events {
		s.send(e)
	}
}

func (s *GRPCSink) send(e Event) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.client.LogEvent(ctx, &types.LogEventRequest{
		Source:    e.Source,
		Level:     e.Level,
		Message:   e.Message,
		Data:      e.Data,
		Timestamp: e.Time.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).Debug("Telemetry event not delivered")
	}
}
