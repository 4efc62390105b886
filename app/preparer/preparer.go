package preparer

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

type EmailPreparer interface {
	Prepare(ctx context.Context, to entity.Recipient, subject string, body string) ([]byte, error)
}

type Message struct {
	To      entity.Recipient
	Subject string
	Body    string
	Raw     []byte
}

type Step interface {
	Prepare(ctx context.Context, msg *Message) error
}

type Chain struct {
	steps []Step
}

// NewChain builds an email preparer chain from steps.
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// Prepare runs all steps in order and returns the final raw message.
func (c *Chain) Prepare(ctx context.Context, to entity.Recipient, subject string, body string) ([]byte, error) {
	msg := &Message{
		To:      to,
		Subject: subject,
		Body:    body,
	}

	for _, step := range c.steps {
		if err := step.Prepare(ctx, msg); err != nil {
			return nil, err
		}
	}

	if len(msg.Raw) == 0 {
		return nil, fmt.Errorf("prepared raw message is empty")
	}

	return msg.Raw, nil
}
