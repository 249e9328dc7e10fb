// Package mail sends transactional email over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/bomatic/bomatic-server/internal/logger"
)

// Config configures the SMTP mailer.
type Config struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	// From is the sender address.
	From string `json:"from" mapstructure:"from"`
	// VerifyBaseURL is prepended to verification links, e.g.
	// https://app.example.com/verify.
	VerifyBaseURL string `json:"verify_base_url" mapstructure:"verify_base_url"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 587
	}
	if c.From == "" {
		c.From = "no-reply@bomatic.app"
	}
}

// Configured reports whether an SMTP host is set.
func (c *Config) Configured() bool { return c.Host != "" }

// Mailer sends verification email via SMTP. When no SMTP host is configured
// it logs the verification link instead, which keeps local development
// working without a mail server.
type Mailer struct {
	cfg Config
	log *logger.Logger
}

// NewMailer creates a Mailer.
func NewMailer(cfg Config, log *logger.Logger) *Mailer {
	cfg.ApplyDefaults()
	return &Mailer{cfg: cfg, log: log.WithComponent("mail")}
}

// SendVerification delivers the email verification link for token to the
// given address.
func (m *Mailer) SendVerification(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s?token=%s", m.cfg.VerifyBaseURL, token)

	if !m.cfg.Configured() {
		m.log.Info("SMTP not configured, logging verification link", logger.Fields(
			logger.FieldEmail, to,
			"link", link,
		))
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: to address: %w", err)
	}
	msg.Subject("Verify your email address")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Welcome!\n\nPlease verify your email address by opening the link below:\n\n%s\n\n"+
			"The link expires in 24 hours. If you did not create an account, ignore this email.\n", link))

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	m.log.Info("Verification email sent", logger.Fields(logger.FieldEmail, to))
	return nil
}
