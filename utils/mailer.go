package utils

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SESMailer struct {
	client *ses.Client
	from   string
}

func NewSESMailer(awsCfg aws.Config, from string) *SESMailer {
	return &SESMailer{client: ses.NewFromConfig(awsCfg), from: from}
}

func (m *SESMailer) Send(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.from),
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

// LogMailer is used when SES_EMAIL is unset; mail is written to the log instead.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger.Info("email (not sent)", zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

func SendWelcomeEmail(ctx context.Context, m Mailer, to, name string) error {
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf("Hi %s,\n\nWelcome to HealthSync! Set your first goal and start logging workouts and meals.", name)
	return m.Send(ctx, to, "Welcome to HealthSync", body)
}

func SendResetEmail(ctx context.Context, m Mailer, to, code string) error {
	body := fmt.Sprintf("Your password reset code is: %s\n\nIt expires in 15 minutes. Use it in the app to set a new password.", code)
	return m.Send(ctx, to, "Password Reset Code", body)
}
