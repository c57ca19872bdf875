package mailer

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("no recipients specified")

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"      envDefault:"587"`
	Username string `env:"EMAIL_USER"`
	Password string `env:"EMAIL_PASS"`
	FromName string `env:"SMTP_FROM_NAME" envDefault:"Couch NBS"`
}

// Mailer represents an email sender.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
	err    error
}

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
}

// NewMailer creates a new Mailer instance with the given configuration.
// An incomplete configuration is not fatal: the problem is logged once and
// every send attempt reports it.
func NewMailer(cfg Config, logger *zerolog.Logger) *Mailer {
	m := &Mailer{config: cfg}

	if err := cfg.validate(); err != nil {
		logger.Warn().Err(err).Msg("mailer is not configured; outgoing email will fail")
		m.err = err
		return m
	}

	// gomail switches to implicit TLS on port 465.
	m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	return m
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}
	if m.err != nil {
		return m.err
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	return m.dialer.DialAndSend(msg)
}

// SendHTML sends an HTML email.
func (m *Mailer) SendHTML(to []string, subject, htmlBody string) error {
	return m.Send(Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetAddressHeader("From", m.config.Username, m.config.FromName)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	msg.SetBody("text/html", email.HTMLBody)
}

// validate checks if the Mailer configuration is valid.
func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.Username == "" {
		return fmt.Errorf("missing EMAIL_USER environment variable")
	}
	if c.Password == "" {
		return fmt.Errorf("missing EMAIL_PASS environment variable")
	}

	return nil
}
