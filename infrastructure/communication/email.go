package communication

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Email sends notifications through SES to a fixed list of recipients.
type Email struct {
	client sesAPI
	from   string
	to     []string
}

func ConnectEmail(ctx context.Context, from string, to []string) (*Email, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewEmail(ses.NewFromConfig(cfg), from, to), nil
}

func NewEmail(client sesAPI, from string, to []string) *Email {
	return &Email{client: client, from: from, to: to}
}

func (e *Email) send(ctx context.Context, subject, body string) error {
	_, err := e.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(e.from),
		Destination: &types.Destination{ToAddresses: e.to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (e *Email) Info(ctx context.Context, message string) error {
	return e.send(ctx, "Patrol notice", message)
}

func (e *Email) Alert(ctx context.Context, message string) error {
	return e.send(ctx, "PATROL ALERT", message)
}

// Multi delivers to every notifier and joins their errors. A message counts
// as delivered when at least one notifier accepted it.
type Multi []Notifier

func (m Multi) each(fn func(Notifier) error) error {
	var errs []error
	for _, n := range m {
		if err := fn(n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m) {
		return errors.Join(errs...)
	}
	return nil
}

func (m Multi) Info(ctx context.Context, message string) error {
	return m.each(func(n Notifier) error { return n.Info(ctx, message) })
}

func (m Multi) Alert(ctx context.Context, message string) error {
	return m.each(func(n Notifier) error { return n.Alert(ctx, message) })
}
