package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

type mailDialer interface {
	DialAndSend(m ...*mail.Message) error
}

type SMTPSender struct {
	dialer mailDialer
	from   entity.Recipient
}

// NewSMTPSender builds a sender for an authenticated SMTP relay.
// The dialer never retries and every network operation is bounded by timeout.
func NewSMTPSender(host string, port int, user, password string, timeout time.Duration, from entity.Recipient) *SMTPSender {
	d := mail.NewDialer(host, port, user, password)
	d.RetryFailure = false
	if timeout > 0 {
		d.Timeout = timeout
	}
	return &SMTPSender{dialer: d, from: from}
}

// Send dials the relay and hands over a single HTML message.
func (s *SMTPSender) Send(ctx context.Context, to entity.Recipient, subject string, body string) error {
	if err := ctx.Err(); err != nil {
		return sendError(to, err)
	}
	if strings.TrimSpace(s.from.Address) == "" {
		return sendError(to, errors.New("sender address is required"))
	}
	if strings.TrimSpace(to.Address) == "" {
		return sendError(to, errors.New("recipient is required"))
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", s.from.Address, s.from.DisplayName)
	m.SetAddressHeader("To", to.Address, to.DisplayName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return sendError(to, err)
	}
	return nil
}
