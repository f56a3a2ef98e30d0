package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"reportexport/internal/config"
)

// sendGridProvider delivers through the SendGrid v3 HTTP API.
type sendGridProvider struct {
	cfg    config.MailConfig
	client *sendgrid.Client
	logger *slog.Logger
}

func newSendGridProvider(cfg config.MailConfig, logger *slog.Logger) *sendGridProvider {
	return &sendGridProvider{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.SendGrid.APIKey),
		logger: logger.With(slog.String("component", "sendgrid_provider")),
	}
}

func (p *sendGridProvider) Name() string {
	return config.MailProviderSendGrid
}

func (p *sendGridProvider) Send(ctx context.Context, msg *Message) (string, error) {
	if p.cfg.SendGrid.APIKey == "" {
		return "", newDeliveryError(p.Name(), ErrNotConfigured, "missing API key")
	}

	from := mail.NewEmail(p.cfg.FromName, p.cfg.FromAddress)
	to := mail.NewEmail(msg.To, msg.To)

	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	personalization.AddTos(to)
	m.AddPersonalizations(personalization)

	m.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	if msg.Attachment != nil {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(msg.Attachment.Content))
		attachment.SetType(msg.Attachment.MIMEType)
		attachment.SetFilename(msg.Attachment.Filename)
		attachment.SetDisposition("attachment")
		m.AddAttachment(attachment)
	}

	resp, err := p.client.SendWithContext(ctx, m)
	if err != nil {
		return "", newDeliveryError(p.Name(), ErrUnreachable, err.Error())
	}
	if resp.StatusCode >= 300 {
		return "", newDeliveryError(p.Name(), ErrRejected,
			fmt.Sprintf("status %d: %s", resp.StatusCode, resp.Body))
	}

	var messageID string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}
