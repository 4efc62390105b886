package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
)

// Event names an authentication business event that triggers an email.
type Event string

const (
	EmailVerificationRequest  Event = "EmailVerificationRequest"
	PasswordResetRequest      Event = "PasswordResetRequest"
	EmailVerificationComplete Event = "EmailVerificationComplete"
	PasswordResetComplete     Event = "PasswordResetComplete"
	PasswordUpdateComplete    Event = "PasswordUpdateComplete"
)

var ErrUnknownEvent = errors.New("unknown auth event")

var eventTemplates = map[Event]entity.TemplateID{
	EmailVerificationRequest:  entity.TemplateEmailVerificationRequest,
	PasswordResetRequest:      entity.TemplatePasswordResetRequest,
	EmailVerificationComplete: entity.TemplateEmailVerificationComplete,
	PasswordResetComplete:     entity.TemplatePasswordResetComplete,
	PasswordUpdateComplete:    entity.TemplatePasswordUpdateComplete,
}

// Events lists every supported event.
func Events() []Event {
	return []Event{
		EmailVerificationRequest,
		PasswordResetRequest,
		EmailVerificationComplete,
		PasswordResetComplete,
		PasswordUpdateComplete,
	}
}

// ParseEvent matches an event name case-insensitively.
func ParseEvent(name string) (Event, error) {
	for _, e := range Events() {
		if strings.EqualFold(string(e), strings.TrimSpace(name)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownEvent, name)
}

// Payload carries what the auth flows know about the recipient.
type Payload struct {
	ToAddress        string
	ToName           string
	Subject          string
	VerificationHash string
}

// JobFor builds the notification job for an event. The request events carry
// the verification hash; the completion events only greet the recipient.
func JobFor(event Event, payload Payload) (entity.Job, error) {
	template, ok := eventTemplates[event]
	if !ok {
		return entity.Job{}, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	content := map[string]string{"recipientName": payload.ToName}
	if event == EmailVerificationRequest || event == PasswordResetRequest {
		content["hash"] = payload.VerificationHash
	}

	subject := payload.Subject
	if subject == "" {
		subject = template.DefaultSubject()
	}

	return entity.Job{
		Template: template,
		Recipient: entity.Recipient{
			Address:     payload.ToAddress,
			DisplayName: payload.ToName,
		},
		Subject: subject,
		Content: content,
	}, nil
}

// Notifier publishes auth emails. Callers treat its error as informational:
// the business action that triggered the email has already happened.
type Notifier struct {
	publisher queue.Publisher
	logger    logrus.FieldLogger
}

func NewNotifier(publisher queue.Publisher, logger logrus.FieldLogger) *Notifier {
	return &Notifier{publisher: publisher, logger: logger.WithField("component", "auth-notifier")}
}

func (n *Notifier) Notify(ctx context.Context, event Event, payload Payload) error {
	job, err := JobFor(event, payload)
	if err != nil {
		n.logger.WithError(err).Warn("Auth email skipped")
		return err
	}

	if err := n.publisher.Publish(ctx, job); err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"event":    string(event),
			"template": string(job.Template),
		}).Error("Failed to queue auth email")
		return err
	}

	n.logger.WithFields(logrus.Fields{
		"event":    string(event),
		"template": string(job.Template),
	}).Debug("Auth email queued")
	return nil
}
