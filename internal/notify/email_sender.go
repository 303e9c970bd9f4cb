package notify

import (
	"context"
	"errors"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/promowatch/internal/logger"
)

const smtpTimeout = 10 * time.Second

// EmailConfig holds SMTP configuration for sending emails.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
}

// mailDialer is the part of gomail.Dialer the sender needs.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers alerts via SMTP. The destination is the recipient address.
type EmailSender struct {
	cfg    EmailConfig
	dialer mailDialer
	log    logger.Interface
}

// NewEmailSender creates a sender with the given SMTP configuration.
func NewEmailSender(cfg EmailConfig, log logger.Interface) *EmailSender {
	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = smtpTimeout
	return newEmailSender(cfg, dialer, log)
}

func newEmailSender(cfg EmailConfig, dialer mailDialer, log logger.Interface) *EmailSender {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &EmailSender{cfg: cfg, dialer: dialer, log: log}
}

// Send delivers an email with HTML body and plain text fallback.
func (s *EmailSender) Send(ctx context.Context, destination string, msg *RenderedMessage) error {
	if destination == "" {
		return errors.New("email destination is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := buildMessage(s.cfg.FromEmail, destination, msg)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.log.Warn("Email send failed", "to", destination, "subject", msg.Subject, "error", err)
		return err
	}

	s.log.Debug("Email sent", "to", destination, "subject", msg.Subject)
	return nil
}

func buildMessage(from, to string, msg *RenderedMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m
}
