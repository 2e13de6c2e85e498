// Package email sends transactional mail: welcome messages and role-change notices.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	mail "github.com/go-mail/mail"

	"sprintlite/internal/config"
)

// Message is one outgoing email. Text is required; HTML is an optional alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	dialer *mail.Dialer
	from   string
	log    *slog.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, log *slog.Logger) *SMTPSender {
	if log == nil {
		log = slog.Default()
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	switch cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// auto: STARTTLS when the server offers it
	}
	return &SMTPSender{dialer: d, from: cfg.From, log: log}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		s.log.ErrorContext(ctx, "smtp send failed", "subject", msg.Subject, "err", err)
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.InfoContext(ctx, "smtp send ok", "subject", msg.Subject)
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when SMTP is not configured.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, m Message) error {
	s.log.InfoContext(ctx, "email (not sent, smtp disabled)", "to", m.To, "subject", m.Subject, "body", m.Text)
	return nil
}
