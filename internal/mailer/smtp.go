package mailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"reportexport/internal/config"
)

// smtpProvider delivers through an authenticated SMTP relay. The dialed
// connection is created lazily on first use and reused across sends; it
// is invalidated on any send failure. A configuration change means a new
// provider instance, so the stale connection dies with the old one.
type smtpProvider struct {
	cfg    config.MailConfig
	logger *slog.Logger

	mu     sync.Mutex
	sender gomail.SendCloser
}

func newSMTPProvider(cfg config.MailConfig, logger *slog.Logger) *smtpProvider {
	return &smtpProvider{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "smtp_provider")),
	}
}

func (p *smtpProvider) Name() string {
	return config.MailProviderSMTP
}

func (p *smtpProvider) Send(ctx context.Context, msg *Message) (string, error) {
	smtp := p.cfg.SMTP
	if smtp.Host == "" {
		return "", newDeliveryError(p.Name(), ErrNotConfigured, "missing host")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.cfg.FromAddress, p.cfg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	// Relay transports return no external id; mint one so every
	// delivery stays traceable end to end.
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), smtp.Host)
	m.SetHeader("Message-ID", messageID)

	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	if msg.Attachment != nil {
		content := msg.Attachment.Content
		m.Attach(msg.Attachment.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {msg.Attachment.MIMEType},
			}),
		)
	}

	done := make(chan error, 1)
	go func() {
		done <- p.send(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", err
		}
		return messageID, nil
	case <-ctx.Done():
		// The attempt is abandoned; the in-flight goroutine may still
		// finish against a connection we no longer trust.
		p.invalidate()
		return "", newDeliveryError(p.Name(), ErrUnreachable, ctx.Err().Error())
	}
}

// send dials lazily, reuses the cached connection, and invalidates it on
// failure so the next attempt redials.
func (p *smtpProvider) send(m *gomail.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sender == nil {
		smtp := p.cfg.SMTP
		dialer := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
		dialer.SSL = smtp.SSL

		sender, err := dialer.Dial()
		if err != nil {
			return newDeliveryError(p.Name(), ErrUnreachable, err.Error())
		}
		p.sender = sender
		p.logger.Debug("smtp connection established",
			slog.String("host", smtp.Host),
			slog.Int("port", smtp.Port))
	}

	if err := gomail.Send(p.sender, m); err != nil {
		p.closeLocked()
		return newDeliveryError(p.Name(), ErrRejected, err.Error())
	}
	return nil
}

func (p *smtpProvider) invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *smtpProvider) closeLocked() {
	if p.sender != nil {
		if err := p.sender.Close(); err != nil {
			p.logger.Debug("smtp connection close failed", slog.String("error", err.Error()))
		}
		p.sender = nil
	}
}
