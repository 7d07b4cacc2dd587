package mailer

import (
	"context"
	"fmt"
	"personal-brand-api/config"
	"personal-brand-api/logger"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

type MailgunSender struct {
	mg      *mailgun.MailgunImpl
	from    string
	timeout time.Duration
}

func newMailgunSender(cfg config.EmailConfig) (*MailgunSender, error) {
	if cfg.Mailgun.Domain == "" || cfg.Mailgun.APIKey == "" || cfg.From == "" {
		return nil, fmt.Errorf("%w: mailgun domain, api_key and from are required", ErrInvalidConfig)
	}
	return &MailgunSender{
		mg:      mailgun.NewMailgun(cfg.Mailgun.Domain, cfg.Mailgun.APIKey),
		from:    cfg.From,
		timeout: cfg.Timeout,
	}, nil
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	message := s.mg.NewMessage(s.from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	_, id, err := s.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	logger.Log.WithField("message_id", id).Info("Email queued via Mailgun")
	return nil
}
