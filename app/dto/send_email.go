package dto

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	"github.com/vibast-solutions/ms-go-mailqueue/app/types"
)

// SendEmailRequest is the HTTP body of POST /email/send. It has the same
// shape as the queue message.
type SendEmailRequest struct {
	Template string        `json:"template"`
	Data     SendEmailData `json:"data"`
}

type SendEmailData struct {
	To      string            `json:"to"`
	ToName  string            `json:"toName"`
	Subject string            `json:"subject"`
	Content map[string]string `json:"content"`
}

// FromEchoContext binds and normalizes a request from Echo.
func FromEchoContext(ctx echo.Context) (SendEmailRequest, error) {
	var req SendEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return SendEmailRequest{}, err
	}
	req.normalize()
	return req, nil
}

// FromGRPC converts and normalizes a gRPC request.
func FromGRPC(req *types.SendEmailRequest) SendEmailRequest {
	dto := SendEmailRequest{
		Template: req.GetTemplate(),
		Data: SendEmailData{
			To:      req.GetTo(),
			ToName:  req.GetToName(),
			Subject: req.GetSubject(),
			Content: req.GetContent(),
		},
	}
	dto.normalize()
	return dto
}

// ToJob converts the request into a notification job.
func (r SendEmailRequest) ToJob() entity.Job {
	content := make(map[string]string, len(r.Data.Content))
	for k, v := range r.Data.Content {
		content[k] = v
	}
	return entity.Job{
		Template: entity.TemplateID(r.Template),
		Recipient: entity.Recipient{
			Address:     r.Data.To,
			DisplayName: r.Data.ToName,
		},
		Subject: r.Data.Subject,
		Content: content,
	}
}

// Validate checks the job preconditions. Errors are the entity sentinels.
func (r SendEmailRequest) Validate() error {
	return r.ToJob().Validate()
}

// normalize trims whitespace around the addressing fields. Content values are
// left as sent.
func (r *SendEmailRequest) normalize() {
	r.Template = strings.TrimSpace(r.Template)
	r.Data.To = strings.TrimSpace(r.Data.To)
	r.Data.ToName = strings.TrimSpace(r.Data.ToName)
	r.Data.Subject = strings.TrimSpace(r.Data.Subject)
}
