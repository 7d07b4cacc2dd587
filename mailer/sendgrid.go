package mailer

import (
	"context"
	"fmt"
	"net/http"
	"personal-brand-api/config"
	"personal-brand-api/logger"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridSender struct {
	client  *sendgrid.Client
	from    string
	timeout time.Duration
}

func newSendGridSender(cfg config.EmailConfig) (*SendGridSender, error) {
	if cfg.SendGrid.APIKey == "" || cfg.From == "" {
		return nil, fmt.Errorf("%w: sendgrid api_key and from are required", ErrInvalidConfig)
	}
	return &SendGridSender{
		client:  sendgrid.NewSendClient(cfg.SendGrid.APIKey),
		from:    cfg.From,
		timeout: cfg.Timeout,
	}, nil
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	message := mail.NewSingleEmail(mail.NewEmail("", s.from), msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid send: unexpected status code %d", response.StatusCode)
	}
	logger.Log.WithField("status_code", response.StatusCode).Info("Email accepted by SendGrid")
	return nil
}
