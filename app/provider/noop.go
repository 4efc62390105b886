package provider

import (
	"context"

	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

// NoopSender accepts every email without contacting a relay.
type NoopSender struct{}

// NewNoopSender constructs a no-op email sender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send returns nil without sending.
func (s *NoopSender) Send(_ context.Context, _ entity.Recipient, _ string, _ string) error {
	return nil
}
