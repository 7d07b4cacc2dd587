// Package mailer delivers transactional email through a configured provider.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"personal-brand-api/config"
	"time"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender is implemented by every provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrInvalidConfig = errors.New("invalid email configuration")

// NewSender builds the provider selected by cfg.Provider, wrapped in a
// circuit breaker. Provider "log" writes messages to the application log.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	var (
		sender Sender
		err    error
	)
	switch cfg.Provider {
	case "", "log":
		return &LogSender{}, nil
	case "smtp":
		sender, err = newSMTPSender(cfg)
	case "mailgun":
		sender, err = newMailgunSender(cfg)
	case "sendgrid":
		sender, err = newSendGridSender(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewBreakerSender(cfg.Provider, sender, cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout), nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(ctx, d)
}
