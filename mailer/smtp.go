package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"personal-brand-api/config"
	"personal-brand-api/logger"
	"strings"
	"time"
)

// SMTPSender delivers through a plain SMTP relay with PLAIN auth.
type SMTPSender struct {
	addr    string
	host    string
	auth    smtp.Auth
	from    string
	timeout time.Duration
}

func newSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	c := cfg.SMTP
	if c.Host == "" || c.Port == "" || c.Username == "" || c.Password == "" || cfg.From == "" {
		return nil, fmt.Errorf("%w: smtp host, port, username, password and from are required", ErrInvalidConfig)
	}
	return &SMTPSender{
		addr:    net.JoinHostPort(c.Host, c.Port),
		host:    c.Host,
		auth:    smtp.PlainAuth("", c.Username, c.Password, c.Host),
		from:    cfg.From,
		timeout: cfg.Timeout,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	// net/smtp has no context support; run it aside and stop waiting on cancel.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, buildMIME(s.from, msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		logger.Log.WithField("to", msg.To).Info("Email sent via SMTP")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.Text)
	}
	return []byte(b.String())
}
