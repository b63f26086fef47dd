package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/parkcare/care-api/config"
)

type smtpNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPNotifier creates a Notifier backed by an SMTP relay.
func NewSMTPNotifier(cfg config.SMTPConfig) Notifier {
	return &smtpNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpNotifier) SendInvite(_ context.Context, to string, inviteLink string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "You have been invited to join Parkinson Care")
	m.SetBody("text/html", fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h2>Welcome to Parkinson Care</h2>
			<p>You have been invited to join as a Caretaker.</p>
			<p>Click the link below to accept the invitation and set up your account:</p>
			<a href="%s">Accept Invitation</a>
			<p style="color: #666; font-size: 12px;">Or copy this link: %s</p>
		</div>
	`, inviteLink, inviteLink))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}
