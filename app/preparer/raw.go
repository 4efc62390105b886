package preparer

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

type RawPreparer struct {
	from entity.Recipient
}

// NewRawPreparer creates a step that builds an HTML MIME message.
func NewRawPreparer(from entity.Recipient) *RawPreparer {
	return &RawPreparer{from: from}
}

// Prepare writes the headers and body into msg.Raw. Display names and
// non-ASCII subjects are RFC 2047 encoded.
func (p *RawPreparer) Prepare(_ context.Context, msg *Message) error {
	if strings.TrimSpace(p.from.Address) == "" {
		return fmt.Errorf("sender address is required")
	}
	if strings.TrimSpace(msg.To.Address) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}

	var b strings.Builder
	b.WriteString("From: ")
	b.WriteString(p.from.String())
	b.WriteString("\r\n")
	b.WriteString("To: ")
	b.WriteString(msg.To.String())
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	msg.Raw = []byte(b.String())
	return nil
}
