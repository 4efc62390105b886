package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeError reports a queue payload that cannot be turned into a Job.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode job: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wireJob mirrors the queue message:
// {"template": "...", "data": {"to": "...", "toName": "...", "subject": "...", "content": {...}}}
type wireJob struct {
	Template TemplateID `json:"template"`
	Data     wireData   `json:"data"`
}

type wireData struct {
	To      string            `json:"to"`
	ToName  string            `json:"toName,omitempty"`
	Subject string            `json:"subject,omitempty"`
	Content map[string]string `json:"content"`
}

// EncodeJob serializes a job into its UTF-8 JSON wire form.
func EncodeJob(job Job) ([]byte, error) {
	content := job.Content
	if content == nil {
		content = map[string]string{}
	}
	return json.Marshal(wireJob{
		Template: job.Template,
		Data: wireData{
			To:      job.Recipient.Address,
			ToName:  job.Recipient.DisplayName,
			Subject: job.Subject,
			Content: content,
		},
	})
}

// DecodeJob parses a wire payload. Only the structural minimum is enforced
// here (template and recipient present); template resolution happens at
// render time. Absent or null content decodes as an empty, non-nil map, so a
// job encoded with nil Content comes back with empty Content.
func DecodeJob(payload []byte) (Job, error) {
	var w wireJob
	if err := json.Unmarshal(payload, &w); err != nil {
		return Job{}, &DecodeError{Err: err}
	}
	if strings.TrimSpace(string(w.Template)) == "" {
		return Job{}, &DecodeError{Err: ErrMissingTemplate}
	}
	if strings.TrimSpace(w.Data.To) == "" {
		return Job{}, &DecodeError{Err: ErrMissingRecipient}
	}

	content := w.Data.Content
	if content == nil {
		content = map[string]string{}
	}

	return Job{
		Template: w.Template,
		Recipient: Recipient{
			Address:     w.Data.To,
			DisplayName: w.Data.ToName,
		},
		Subject: w.Data.Subject,
		Content: content,
	}, nil
}

// IsDecodeError reports whether err came from DecodeJob.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}
