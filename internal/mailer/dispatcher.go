package mailer

import (
	"context"
	"log/slog"
	"regexp"
	"time"
)

// recipientPattern is a conservative local@domain-with-dot check. It is
// deliberately stricter than RFC 5322: addresses this rejects are not
// worth a network round trip.
var recipientPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)+$`)

// ValidRecipient reports whether the address passes the conservative
// pre-dispatch check.
func ValidRecipient(addr string) bool {
	return recipientPattern.MatchString(addr)
}

// Document is a rendered report ready for delivery.
type Document struct {
	Bytes    []byte
	Filename string
	MIMEType string
}

// DeliveryResult records a successful delivery for audit purposes.
type DeliveryResult struct {
	Provider  string `json:"provider"`
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
	Filename  string `json:"filename"`
}

// Dispatcher hands rendered documents to the active transport provider
// under a bounded timeout. Retry policy, if any, belongs to the caller.
type Dispatcher struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher around the active provider.
func NewDispatcher(provider Provider, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "delivery_dispatcher")),
	}
}

// ProviderName returns the active provider's name.
func (d *Dispatcher) ProviderName() string {
	return d.provider.Name()
}

// Deliver validates the recipient and subject, then attempts one
// delivery through the active provider. Validation failures never reach
// the network. Every attempt, success or failure, is logged with the
// provider name, recipient and subject.
func (d *Dispatcher) Deliver(ctx context.Context, doc Document, recipient, subject, text, html string) (*DeliveryResult, error) {
	if !ValidRecipient(recipient) {
		return nil, newDeliveryError(d.provider.Name(), ErrInvalidRecipient, recipient)
	}
	if subject == "" {
		return nil, newDeliveryError(d.provider.Name(), ErrMissingSubject, "")
	}

	msg := &Message{
		To:      recipient,
		Subject: subject,
		Text:    text,
		HTML:    html,
		Attachment: &Attachment{
			Filename: doc.Filename,
			MIMEType: doc.MIMEType,
			Content:  doc.Bytes,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	messageID, err := d.provider.Send(ctx, msg)
	if err != nil {
		d.logger.ErrorContext(ctx, "delivery failed",
			slog.String("provider", d.provider.Name()),
			slog.String("recipient", recipient),
			slog.String("subject", subject),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, err
	}

	d.logger.InfoContext(ctx, "delivery succeeded",
		slog.String("provider", d.provider.Name()),
		slog.String("recipient", recipient),
		slog.String("subject", subject),
		slog.String("message_id", messageID),
		slog.String("filename", doc.Filename),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &DeliveryResult{
		Provider:  d.provider.Name(),
		MessageID: messageID,
		Recipient: recipient,
		Filename:  doc.Filename,
	}, nil
}
