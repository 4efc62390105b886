package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	types "github.com/vibast-solutions/ms-go-mailqueue/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LogStore persists telemetry records.
type LogStore interface {
	Insert(ctx context.Context, record entity.LogRecord) (int64, error)
}

type LoggingServer struct {
	types.UnimplementedLoggingServiceServer
	store  LogStore
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewLoggingServer constructs the logging gRPC handler.
func NewLoggingServer(store LogStore, logger logrus.FieldLogger) *LoggingServer {
	return &LoggingServer{
		store:  store,
		logger: logger.WithField("component", "logging"),
		now:    time.Now,
	}
}

// LogEvent stores one telemetry event.
func (s *LoggingServer) LogEvent(ctx context.Context, req *types.LogEventRequest) (*types.LogEventResponse, error) {
	source := strings.TrimSpace(req.GetSource())
	if source == "" {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}

	createdAt := s.now()
	if ts := req.GetTimestamp(); ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "timestamp %q is not RFC 3339", ts)
		}
		createdAt = parsed
	}

	record := entity.LogRecord{
		Source:      source,
		Type:        normalizeLevel(req.GetLevel()),
		Description: req.GetMessage(),
		Data:        req.GetData(),
		CreatedAt:   createdAt,
	}
	if _, err := s.store.Insert(ctx, record); err != nil {
		s.logger.WithError(err).WithField("source", source).Error("Failed to store log event")
		return nil, status.Error(codes.Internal, "failed to store log event")
	}

	return &types.LogEventResponse{Success: true}, nil
}

func normalizeLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case entity.LogLevelDebug:
		return entity.LogLevelDebug
	case entity.LogLevelWarn, "WARNING":
		return entity.LogLevelWarn
	case entity.LogLevelError, "FATAL", "PANIC":
		return entity.LogLevelError
	default:
		return entity.LogLevelInfo
	}
}
