package mailer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mailgun/mailgun-go/v4"

	"reportexport/internal/config"
)

// mailgunProvider delivers through the Mailgun HTTP API.
type mailgunProvider struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

func newMailgunProvider(cfg config.MailConfig, logger *slog.Logger) *mailgunProvider {
	return &mailgunProvider{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "mailgun_provider")),
	}
}

func (p *mailgunProvider) Name() string {
	return config.MailProviderMailgun
}

func (p *mailgunProvider) Send(ctx context.Context, msg *Message) (string, error) {
	if p.cfg.Mailgun.Domain == "" || p.cfg.Mailgun.APIKey == "" {
		return "", newDeliveryError(p.Name(), ErrNotConfigured, "missing domain or API key")
	}

	mg := mailgun.NewMailgun(p.cfg.Mailgun.Domain, p.cfg.Mailgun.APIKey)
	if p.cfg.Mailgun.BaseURL != "" {
		mg.SetAPIBase(p.cfg.Mailgun.BaseURL)
	}

	from := p.cfg.FromName + " <" + p.cfg.FromAddress + ">"
	m := mg.NewMessage(from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		m.SetHtml(msg.HTML)
	}
	if msg.Attachment != nil {
		// The library base64-encodes buffer attachments onto the wire.
		m.AddBufferAttachment(msg.Attachment.Filename, msg.Attachment.Content)
	}

	_, id, err := mg.Send(ctx, m)
	if err != nil {
		var unexpected *mailgun.UnexpectedResponseError
		if errors.As(err, &unexpected) {
			return "", newDeliveryError(p.Name(), ErrRejected, err.Error())
		}
		return "", newDeliveryError(p.Name(), ErrUnreachable, err.Error())
	}
	return id, nil
}
