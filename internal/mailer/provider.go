package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"reportexport/internal/config"
)

// Attachment is a document attached to an outgoing message. HTTP
// providers embed it base64-encoded; the SMTP relay sends it as a binary
// part with an explicit content type.
type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Message is the provider-agnostic outgoing email.
type Message struct {
	To         string
	Subject    string
	Text       string
	HTML       string // optional
	Attachment *Attachment
}

// Provider is the shared capability contract implemented once per
// transport. Send returns the provider's external message id.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg *Message) (string, error)
}

// NewProvider builds the single active provider named by configuration.
// Selection happens here and nowhere else; call sites never branch on
// the provider name. Credential checks are deferred to dispatch time so
// a misconfigured provider surfaces as ErrNotConfigured on use rather
// than failing startup.
func NewProvider(cfg config.MailConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.MailProviderSendGrid:
		return newSendGridProvider(cfg, logger), nil
	case config.MailProviderMailgun:
		return newMailgunProvider(cfg, logger), nil
	case config.MailProviderSMTP:
		return newSMTPProvider(cfg, logger), nil
	}
	return nil, fmt.Errorf("unknown mail provider: %q", cfg.Provider)
}
