package mailer

import (
	"fmt"

	"fixit-server/config"

	"gopkg.in/gomail.v2"
)

// Sender delivers transactional mail. Tests substitute a fake.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// OTPBody renders the verification-code mail used for user password resets,
// provider email verification and the admin login second step.
func OTPBody(code string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial; padding: 20px;">
			<h2>OTP Verification</h2>
			<p>Your verification code is:</p>
			<h1 style="letter-spacing:4px;">%s</h1>
			<p>This code is valid for <b>5 minutes</b>.</p>
			<p>If you didn't request this, ignore this email.</p>
		</div>`, code)
}
