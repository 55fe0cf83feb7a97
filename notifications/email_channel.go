package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/lumenlearn/notify/pkg/email"
)

// AddressResolver maps a user ID to an email address. It lives outside
// this subsystem; account management owns the mapping.
type AddressResolver func(ctx context.Context, userID string) (string, error)

// EmailChannel renders a notification into a small HTML email and sends
// it through an email.EmailSender. The router only invokes it for high
// priority notifications.
type EmailChannel struct {
	sender  email.EmailSender
	resolve AddressResolver
	tmpl    *template.Template
}

// NewEmailChannel creates the email rendition channel.
func NewEmailChannel(sender email.EmailSender, resolve AddressResolver) (*EmailChannel, error) {
	if sender == nil {
		return nil, errors.New("notifications: email sender is required")
	}
	if resolve == nil {
		return nil, errors.New("notifications: address resolver is required")
	}
	tmpl, err := template.New("notification").Parse(emailBodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}
	return &EmailChannel{sender: sender, resolve: resolve, tmpl: tmpl}, nil
}

// Deliver implements EmailDeliverer.
func (c *EmailChannel) Deliver(ctx context.Context, notif Notification) error {
	addr, err := c.resolve(ctx, notif.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve email address: %w", err)
	}

	var body bytes.Buffer
	if err := c.tmpl.Execute(&body, emailBodyData{
		Title:     notif.Title,
		Message:   notif.Message,
		ActionURL: actionURL(notif.Payload),
	}); err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	return c.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   addr,
		Subject:  notif.Title,
		BodyHTML: body.String(),
		Tag:      "notification-" + string(notif.Type),
	})
}

type emailBodyData struct {
	Title     string
	Message   string
	ActionURL string
}

// actionURL pulls an optional link out of the opaque payload.
func actionURL(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	if u, ok := payload["action_url"].(string); ok {
		return u
	}
	return ""
}

const emailBodyTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">{{ .Title }}</h2>
  <p style="color: #444; line-height: 1.5;">{{ .Message }}</p>
  {{ if .ActionURL }}<p><a href="{{ .ActionURL }}" style="display: inline-block; padding: 10px 18px; background: #2563eb; color: #fff; text-decoration: none; border-radius: 6px;">View</a></p>{{ end }}
</body>
</html>`
