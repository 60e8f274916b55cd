// Package email delivers notification emails over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is one composed email ready for transport.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender is the transport contract for composed messages.
type Sender interface {
	SendMessage(ctx context.Context, message Message) error
}

// SMTPConfig carries SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender delivers messages through a plain-auth SMTP relay.
type SMTPSender struct {
	config SMTPConfig
}

// NewSMTPSender validates transport settings and builds a sender.
func NewSMTPSender(config SMTPConfig) (*SMTPSender, error) {
	config.Host = strings.TrimSpace(config.Host)
	config.Port = strings.TrimSpace(config.Port)
	config.From = strings.TrimSpace(config.From)
	if config.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if config.Port == "" {
		config.Port = "587"
	}
	if config.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &SMTPSender{config: config}, nil
}

// SendMessage delivers one message. The multipart body carries both the text
// and HTML renderings so clients can pick either.
func (s *SMTPSender) SendMessage(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("smtp sender is not configured")
	}
	to := strings.TrimSpace(message.To)
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}
	addr := s.config.Host + ":" + s.config.Port
	payload := composeMIME(s.config.From, to, message)
	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, payload); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

const mimeBoundary = "mangacollab-alt"

func composeMIME(from string, to string, message Message) []byte {
	var buf strings.Builder
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + sanitizeHeader(message.Subject) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")

	if message.HTMLBody == "" {
		buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		buf.WriteString("\r\n")
		buf.WriteString(message.TextBody)
		return []byte(buf.String())
	}

	buf.WriteString("Content-Type: multipart/alternative; boundary=\"" + mimeBoundary + "\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString("--" + mimeBoundary + "\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(message.TextBody)
	buf.WriteString("\r\n--" + mimeBoundary + "\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(message.HTMLBody)
	buf.WriteString("\r\n--" + mimeBoundary + "--\r\n")
	return []byte(buf.String())
}

// sanitizeHeader strips CR/LF so composed values cannot inject headers.
func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}

var _ Sender = (*SMTPSender)(nil)
