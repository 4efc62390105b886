package service

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	"github.com/vibast-solutions/ms-go-mailqueue/app/provider"
	"golang.org/x/time/rate"
)

type Renderer interface {
	Render(id string, values map[string]string) (string, error)
}

type EmailService struct {
	renderer Renderer
	sender   provider.EmailSender
	limiter  *rate.Limiter
}

// NewEmailService builds the email service. perSecond <= 0 disables rate limiting.
func NewEmailService(renderer Renderer, sender provider.EmailSender, perSecond int) *EmailService {
	svc := &EmailService{renderer: renderer, sender: sender}
	if perSecond > 0 {
		svc.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	return svc
}

// Deliver renders the job template and hands the result to the mail transport.
// Render failures wrap templates.ErrTemplateNotFound, send failures wrap
// *provider.SendError and carry the request id when ctx has one.
func (s *EmailService) Deliver(ctx context.Context, job entity.Job) error {
	body, err := s.renderer.Render(string(job.Template), job.Content)
	if err != nil {
		return fmt.Errorf("render %s: %w", job.Template, err)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for mail rate limit: %w", err)
		}
	}

	if err := s.sender.Send(ctx, job.Recipient, job.ResolvedSubject(), body); err != nil {
		if id, ok := RequestIDFromContext(ctx); ok {
			return fmt.Errorf("request %s: %w", id, err)
		}
		return err
	}
	return nil
}
