package email

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"refhub_backend/internal/config"
	"refhub_backend/internal/logger"
)

// Sender delivers transactional mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg *config.Config) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUsername,
			cfg.Email.SMTPPassword,
		),
		from: fmt.Sprintf("%s <%s>", cfg.Email.FromName, cfg.Email.FromEmail),
	}
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// noopSender is used when SMTP is not configured; it logs instead of sending.
type noopSender struct{}

func NewNoopSender() Sender {
	return &noopSender{}
}

func (s *noopSender) Send(to, subject, htmlBody string) error {
	logger.Debug("email suppressed, smtp not configured", "to", to, "subject", subject)
	return nil
}

// NewSender picks the SMTP sender when configured, the noop sender otherwise.
func NewSender(cfg *config.Config) Sender {
	if cfg.Email.SMTPHost == "" {
		return NewNoopSender()
	}
	return NewSMTPSender(cfg)
}
