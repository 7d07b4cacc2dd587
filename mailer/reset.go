package mailer

import (
	"context"
	"fmt"
	"html"
)

// ResetMailer renders and sends the password reset email.
type ResetMailer struct {
	sender Sender
}

func NewResetMailer(sender Sender) *ResetMailer {
	return &ResetMailer{sender: sender}
}

func (m *ResetMailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	return m.sender.Send(ctx, Message{
		To:      to,
		Subject: "Reset your password",
		Text: fmt.Sprintf("We received a request to reset your password.\n\n"+
			"Open this link within one hour to choose a new one:\n%s\n\n"+
			"If you did not request this, you can ignore this email.", resetURL),
		HTML: fmt.Sprintf(`<p>We received a request to reset your password.</p>`+
			`<p><a href="%s">Choose a new password</a>. The link expires in one hour.</p>`+
			`<p>If you did not request this, you can ignore this email.</p>`, html.EscapeString(resetURL)),
	})
}
