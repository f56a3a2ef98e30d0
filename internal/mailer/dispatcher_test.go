package mailer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeProvider records calls and returns a scripted result.
type fakeProvider struct {
	name  string
	id    string
	err   error
	calls []*Message
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(ctx context.Context, msg *Message) (string, error) {
	f.calls = append(f.calls, msg)
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func testDocument() Document {
	return Document{
		Bytes:    []byte("%PDF-1.4 fake"),
		Filename: "Incidents_Report_acme_20260125093000.pdf",
		MIMEType: "application/pdf",
	}
}

func TestDispatcher_Deliver(t *testing.T) {
	provider := &fakeProvider{name: "sendgrid", id: "msg-123"}
	d := NewDispatcher(provider, 15*time.Second, testLogger())

	result, err := d.Deliver(context.Background(), testDocument(),
		"ops@example.com", "Incidents Report", "attached", "<p>attached</p>")
	require.NoError(t, err)

	assert.Equal(t, "sendgrid", result.Provider)
	assert.Equal(t, "msg-123", result.MessageID)
	assert.Equal(t, "ops@example.com", result.Recipient)
	assert.Equal(t, "Incidents_Report_acme_20260125093000.pdf", result.Filename)

	require.Len(t, provider.calls, 1)
	sent := provider.calls[0]
	assert.Equal(t, "ops@example.com", sent.To)
	require.NotNil(t, sent.Attachment)
	assert.Equal(t, "application/pdf", sent.Attachment.MIMEType)
}

func TestDispatcher_InvalidRecipientFailsFast(t *testing.T) {
	provider := &fakeProvider{name: "sendgrid", id: "msg-123"}
	d := NewDispatcher(provider, 15*time.Second, testLogger())

	_, err := d.Deliver(context.Background(), testDocument(),
		"not-an-address", "Subject", "body", "")
	require.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, provider.calls, "invalid addresses must never reach the provider")
}

func TestDispatcher_MissingSubjectFailsFast(t *testing.T) {
	provider := &fakeProvider{name: "smtp"}
	d := NewDispatcher(provider, 15*time.Second, testLogger())

	_, err := d.Deliver(context.Background(), testDocument(),
		"ops@example.com", "", "body", "")
	require.ErrorIs(t, err, ErrMissingSubject)
	assert.Empty(t, provider.calls)
}

func TestDispatcher_ProviderErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		err  *DeliveryError
	}{
		{"not configured", newDeliveryError("smtp", ErrNotConfigured, "missing host")},
		{"rejected", newDeliveryError("mailgun", ErrRejected, "status 400")},
		{"unreachable", newDeliveryError("sendgrid", ErrUnreachable, "dial timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{name: tt.err.Provider, err: tt.err}
			d := NewDispatcher(provider, 15*time.Second, testLogger())

			_, err := d.Deliver(context.Background(), testDocument(),
				"ops@example.com", "Subject", "body", "")
			require.ErrorIs(t, err, tt.err.Kind)

			var derr *DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.err.Provider, derr.Provider)
		})
	}
}

func TestValidRecipient(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"ops@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"user_name%x@host-name.org", true},
		{"", false},
		{"no-at-sign", false},
		{"missing@dot", false},
		{"two@@example.com", false},
		{"spaces in@example.com", false},
		{"@example.com", false},
		{"user@", false},
		{"user@.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidRecipient(tt.addr))
		})
	}
}

func TestDeliveryError_Message(t *testing.T) {
	err := newDeliveryError("smtp", ErrNotConfigured, "missing host")
	assert.Equal(t, "smtp: provider not configured: missing host", err.Error())
	assert.ErrorIs(t, err, ErrNotConfigured)

	bare := newDeliveryError("mailgun", ErrRejected, "")
	assert.Equal(t, "mailgun: provider rejected message", bare.Error())
}
