package provider

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

// EmailSender delivers one rendered HTML email. Implementations do not retry.
type EmailSender interface {
	Send(ctx context.Context, to entity.Recipient, subject string, body string) error
}

// SendError wraps any transport failure with the recipient it was meant for.
type SendError struct {
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send email to %s: %v", e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func sendError(to entity.Recipient, err error) error {
	return &SendError{Recipient: to.Address, Err: err}
}
