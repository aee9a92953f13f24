package notifications

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer picks SMTP when configured and falls back to logging the message.
func NewMailer(cfg config.EmailConfig, logg *logger.Logger) Mailer {
	if cfg.SMTPEnabled() {
		return NewSMTPMailer(cfg)
	}
	return &LogMailer{logg: logg}
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through a plain SMTP relay with optional PLAIN auth.
type SMTPMailer struct {
	addr    string
	host    string
	auth    smtp.Auth
	from    string
	timeout time.Duration
	send    sendFunc
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPMailer{
		addr:    net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host:    cfg.SMTPHost,
		auth:    auth,
		from:    cfg.From,
		timeout: timeout,
		send:    smtp.SendMail,
	}
}

// Send gives up waiting after the configured timeout; smtp.SendMail itself
// has no context support, so the dial may finish in the background.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient required")
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	raw := buildMIME(m.from, msg)
	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, m.from, []string{msg.To}, raw)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logg *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if m.logg == nil {
		return nil
	}
	m.logg.Info(m.logg.WithFields(ctx, map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}), "email delivery disabled; message logged")
	return nil
}
