package utils

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/tapin-app/tapin-backend/pkg/config"
)

var ErrMailNotConfigured = errors.New("SMTP config not set")

// Mailer sends transactional mail through an SMTP relay (Resend by default).
type Mailer struct {
	cfg  config.SMTP
	send func(m *gomail.Message) error
}

func NewMailer(cfg config.SMTP) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &Mailer{cfg: cfg, send: func(m *gomail.Message) error { return d.DialAndSend(m) }}
}

// DefaultMailer is replaced at startup once config is loaded.
var DefaultMailer = &Mailer{}

func (m *Mailer) from() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return "TapIn <no-reply@tapin.app>"
}

func (m *Mailer) SendOTPEmail(to, otp string) error {
	if m.send == nil || m.cfg.Host == "" || m.cfg.Password == "" {
		return ErrMailNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from())
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your TapIn verification code")
	msg.SetBody("text/plain", fmt.Sprintf("Your verification code is: %s", otp))
	msg.AddAlternative("text/html", fmt.Sprintf("<p>Your verification code is: <strong>%s</strong></p>", otp))

	if err := m.send(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
