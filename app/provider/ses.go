package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	"github.com/vibast-solutions/ms-go-mailqueue/app/preparer"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESSender struct {
	client   sesAPI
	preparer preparer.EmailPreparer
	source   string
}

// NewSESSender builds a sender that ships raw MIME messages through AWS SES.
func NewSESSender(cfg aws.Config, from entity.Recipient) *SESSender {
	return newSESSender(sesv2.NewFromConfig(cfg), from)
}

func newSESSender(client sesAPI, from entity.Recipient) *SESSender {
	return &SESSender{
		client:   client,
		preparer: preparer.NewChain(preparer.NewRawPreparer(from)),
		source:   from.Address,
	}
}

// Send prepares the raw MIME message and submits it to SES.
func (s *SESSender) Send(ctx context.Context, to entity.Recipient, subject string, body string) error {
	if to.Address == "" {
		return sendError(to, errors.New("recipient is required"))
	}

	raw, err := s.preparer.Prepare(ctx, to, subject, body)
	if err != nil {
		return sendError(to, fmt.Errorf("prepare raw email: %w", err))
	}

	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.source),
		Destination: &types.Destination{
			ToAddresses: []string{to.Address},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return sendError(to, fmt.Errorf("ses send raw email: %w", err))
	}
	return nil
}
