package entity

import (
	"errors"
	"net/mail"
	"strings"
)

// TemplateID selects a pre-deployed email template.
type TemplateID string

const (
	TemplateEmailVerificationRequest  TemplateID = "auth/email-verification-request"
	TemplatePasswordResetRequest      TemplateID = "auth/password-reset-request"
	TemplateEmailVerificationComplete TemplateID = "auth/email-verification-complete"
	TemplatePasswordResetComplete     TemplateID = "auth/password-reset-complete"
	TemplatePasswordUpdateComplete    TemplateID = "auth/password-update-complete"
)

var defaultSubjects = map[TemplateID]string{
	TemplateEmailVerificationRequest:  "Verify your email!",
	TemplatePasswordResetRequest:      "Password reset request",
	TemplateEmailVerificationComplete: "Email verified successfully",
	TemplatePasswordResetComplete:     "Password reset successfully",
	TemplatePasswordUpdateComplete:    "Password changed!",
}

const fallbackSubject = "Notification"

var (
	ErrMissingTemplate  = errors.New("template is required")
	ErrUnknownTemplate  = errors.New("template is not a known template")
	ErrMissingRecipient = errors.New("recipient address is required")
	ErrInvalidRecipient = errors.New("recipient must be a valid email address")
)

// KnownTemplates lists every template id the pipeline accepts.
func KnownTemplates() []TemplateID {
	return []TemplateID{
		TemplateEmailVerificationRequest,
		TemplatePasswordResetRequest,
		TemplateEmailVerificationComplete,
		TemplatePasswordResetComplete,
		TemplatePasswordUpdateComplete,
	}
}

// Known reports whether the id belongs to the known template set.
func (t TemplateID) Known() bool {
	_, ok := defaultSubjects[t]
	return ok
}

// DefaultSubject returns the subject used when a job carries none.
func (t TemplateID) DefaultSubject() string {
	if subject, ok := defaultSubjects[t]; ok {
		return subject
	}
	return fallbackSubject
}

type Recipient struct {
	Address     string
	DisplayName string
}

// String formats the recipient as an RFC 5322 address.
func (r Recipient) String() string {
	return (&mail.Address{Name: r.DisplayName, Address: r.Address}).String()
}

// Job is one notification request as it travels through the queue.
// Consumers receive it by value and never write back into it.
type Job struct {
	Template  TemplateID
	Recipient Recipient
	Subject   string
	Content   map[string]string
}

// ResolvedSubject returns the explicit subject or the template default.
func (j Job) ResolvedSubject() string {
	if strings.TrimSpace(j.Subject) != "" {
		return j.Subject
	}
	return j.Template.DefaultSubject()
}

// Validate checks the producer preconditions.
func (j Job) Validate() error {
	if strings.TrimSpace(string(j.Template)) == "" {
		return ErrMissingTemplate
	}
	if !j.Template.Known() {
		return ErrUnknownTemplate
	}
	if strings.TrimSpace(j.Recipient.Address) == "" {
		return ErrMissingRecipient
	}
	addr, err := mail.ParseAddress(j.Recipient.Address)
	if err != nil || addr.Address != j.Recipient.Address {
		return ErrInvalidRecipient
	}
	return nil
}
