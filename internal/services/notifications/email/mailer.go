package email

import (
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/mangacollab/mangacollab/internal/platform/branding"
	"github.com/mangacollab/mangacollab/internal/platform/timeouts"
	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Mailer renders notification emails from embedded templates and hands them
// to a transport. It implements the domain mail contract: delivery outcomes
// are reported as result values, never as errors.
type Mailer struct {
	sender   Sender
	siteName string
	html     *htmltemplate.Template
	text     *texttemplate.Template
}

// NewMailer parses the embedded template set over the provided transport.
func NewMailer(sender Sender) (*Mailer, error) {
	if sender == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html email templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text email templates: %w", err)
	}
	return &Mailer{
		sender:   sender,
		siteName: branding.AppName,
		html:     html,
		text:     text,
	}, nil
}

type templateData struct {
	RecipientUsername string
	Title             string
	Message           string
	SiteName          string
}

// Send renders and delivers one notification email.
func (m *Mailer) Send(ctx context.Context, input domain.EmailInput) domain.EmailResult {
	if m == nil || m.sender == nil {
		return domain.EmailResult{Status: domain.EmailFailed, Reason: "mailer is not configured"}
	}
	to := strings.TrimSpace(input.RecipientEmail)
	if to == "" {
		return domain.EmailResult{Status: domain.EmailFailed, Reason: "recipient has no email address"}
	}

	data := templateData{
		RecipientUsername: input.RecipientUsername,
		Title:             input.Title,
		Message:           input.Message,
		SiteName:          m.siteName,
	}
	ref := input.Kind.TemplateRef()

	htmlBody, err := m.renderHTML(ref, data)
	if err != nil {
		return domain.EmailResult{Status: domain.EmailFailed, Reason: err.Error()}
	}
	textBody, err := m.renderText(ref, data)
	if err != nil {
		return domain.EmailResult{Status: domain.EmailFailed, Reason: err.Error()}
	}

	message := Message{
		To:       to,
		Subject:  fmt.Sprintf("[%s] %s", m.siteName, input.Title),
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeouts.EmailSend)
	defer cancel()
	if err := m.sender.SendMessage(sendCtx, message); err != nil {
		return domain.EmailResult{Status: domain.EmailFailed, Reason: err.Error()}
	}
	return domain.EmailResult{Status: domain.EmailSent}
}

func (m *Mailer) renderHTML(ref string, data templateData) (string, error) {
	name := ref + ".html.tmpl"
	if m.html.Lookup(name) == nil {
		name = "default.html.tmpl"
	}
	var buf strings.Builder
	if err := m.html.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render html email %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) renderText(ref string, data templateData) (string, error) {
	name := ref + ".txt.tmpl"
	if m.text.Lookup(name) == nil {
		name = "default.txt.tmpl"
	}
	var buf strings.Builder
	if err := m.text.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render text email %s: %w", name, err)
	}
	return buf.String(), nil
}

var _ domain.Mailer = (*Mailer)(nil)
