package controller

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

type mockPublisher struct {
	err  error
	jobs []entity.Job
}

func (p *mockPublisher) Publish(_ context.Context, job entity.Job) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func send(t *testing.T, ctrl *EmailController, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/email/send", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := ctrl.Send(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	return rec
}

func TestEmailControllerSendSuccess(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	pub := &mockPublisher{}
	ctrl := NewEmailController(pub, logger)

	rec := send(t, ctrl, `{"template":"auth/email-verification-request","data":{"to":"a@b.com","toName":"Ann","content":{"recipientName":"Ann","hash":"abc123"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(pub.jobs) != 1 {
		t.Fatalf("expected 1 published job, got %d", len(pub.jobs))
	}
	job := pub.jobs[0]
	if job.Template != entity.TemplateEmailVerificationRequest || job.Recipient.DisplayName != "Ann" || job.Content["hash"] != "abc123" {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestEmailControllerSendValidationError(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	pub := &mockPublisher{}
	ctrl := NewEmailController(pub, logger)

	rec := send(t, ctrl, `{"template":"auth/email-verification-request","data":{"to":"bad"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(entity.ErrInvalidRecipient.Error())) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if len(pub.jobs) != 0 {
		t.Fatalf("expected nothing published")
	}
}

func TestEmailControllerSendUnknownTemplate(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	ctrl := NewEmailController(&mockPublisher{}, logger)

	rec := send(t, ctrl, `{"template":"marketing/blast","data":{"to":"a@b.com"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEmailControllerSendInvalidBody(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	ctrl := NewEmailController(&mockPublisher{}, logger)

	rec := send(t, ctrl, `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEmailControllerSendPublishFailure(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	ctrl := NewEmailController(&mockPublisher{err: errors.New("redis down")}, logger)

	rec := send(t, ctrl, `{"template":"auth/password-reset-complete","data":{"to":"a@b.com"}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected publish failure logged at error level")
	}
}
