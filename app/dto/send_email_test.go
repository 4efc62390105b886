package dto

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	"github.com/vibast-solutions/ms-go-mailqueue/app/types"
)

func TestSendEmailRequestValidate(t *testing.T) {
	t.Parallel()

	valid := SendEmailRequest{
		Template: string(entity.TemplatePasswordResetRequest),
		Data:     SendEmailData{To: "a@b.com"},
	}

	tests := []struct {
		name string
		req  func() SendEmailRequest
		err  error
	}{
		{name: "valid", req: func() SendEmailRequest { return valid }, err: nil},
		{name: "missing template", req: func() SendEmailRequest { r := valid; r.Template = ""; return r }, err: entity.ErrMissingTemplate},
		{name: "unknown template", req: func() SendEmailRequest { r := valid; r.Template = "auth/x"; return r }, err: entity.ErrUnknownTemplate},
		{name: "missing recipient", req: func() SendEmailRequest { r := valid; r.Data.To = ""; return r }, err: entity.ErrMissingRecipient},
		{name: "invalid recipient", req: func() SendEmailRequest { r := valid; r.Data.To = "bad"; return r }, err: entity.ErrInvalidRecipient},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.req().Validate(); !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestFromEchoContextNormalizes(t *testing.T) {
	t.Parallel()

	body := `{"template":" auth/email-verification-request ","data":{"to":" a@b.com ","toName":" Ann ","content":{"recipientName":" Ann ","hash":"abc123"}}}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/email/send", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())

	got, err := FromEchoContext(ctx)
	if err != nil {
		t.Fatalf("FromEchoContext: %v", err)
	}
	if got.Template != "auth/email-verification-request" || got.Data.To != "a@b.com" || got.Data.ToName != "Ann" {
		t.Fatalf("request not normalized: %+v", got)
	}
	if got.Data.Content["recipientName"] != " Ann " {
		t.Fatalf("content values must be kept verbatim, got %q", got.Data.Content["recipientName"])
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFromEchoContextInvalidJSON(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/email/send", strings.NewReader("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	if _, err := FromEchoContext(e.NewContext(req, httptest.NewRecorder())); err == nil {
		t.Fatalf("expected bind error")
	}
}

func TestFromGRPC(t *testing.T) {
	t.Parallel()

	got := FromGRPC(&types.SendEmailRequest{
		Template: "auth/password-reset-request",
		To:       " a@b.com",
		ToName:   "Ann",
		Subject:  "Reset",
		Content:  map[string]string{"hash": "h"},
	})
	job := got.ToJob()
	if job.Template != entity.TemplatePasswordResetRequest || job.Recipient.Address != "a@b.com" || job.Recipient.DisplayName != "Ann" {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Subject != "Reset" || job.Content["hash"] != "h" {
		t.Fatalf("unexpected job %+v", job)
	}

	if empty := FromGRPC(nil); empty.Template != "" || empty.Data.To != "" {
		t.Fatalf("expected empty request for nil input, got %+v", empty)
	}
}

func TestToJobCopiesContent(t *testing.T) {
	t.Parallel()

	req := SendEmailRequest{Data: SendEmailData{Content: map[string]string{"a": "1"}}}
	job := req.ToJob()
	job.Content["a"] = "2"
	if req.Data.Content["a"] != "1" {
		t.Fatalf("job content aliases request content")
	}
}
