package grpc

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/dto"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
	types "github.com/vibast-solutions/ms-go-mailqueue/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	types.UnimplementedNotificationsServiceServer
	publisher queue.Publisher
	logger    logrus.FieldLogger
}

// NewServer constructs the notifications gRPC handler.
func NewServer(publisher queue.Publisher, logger logrus.FieldLogger) *Server {
	return &Server{publisher: publisher, logger: logger.WithField("component", "grpc")}
}

// SendEmail validates the request and enqueues it for delivery.
func (s *Server) SendEmail(ctx context.Context, req *types.SendEmailRequest) (*types.SendEmailResponse, error) {
	msg := dto.FromGRPC(req)
	if err := msg.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.publisher.Publish(ctx, msg.ToJob()); err != nil {
		s.logger.WithError(err).WithField("template", msg.Template).Error("Failed to queue email")
		return nil, status.Error(codes.Internal, "failed to queue email")
	}

	return &types.SendEmailResponse{Success: true}, nil
}
