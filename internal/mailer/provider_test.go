package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportexport/internal/config"
)

func mailConfig(provider string) config.MailConfig {
	return config.MailConfig{
		Provider:    provider,
		FromName:    "Report Export",
		FromAddress: "reports@example.com",
		Timeout:     15 * time.Second,
	}
}

func TestNewProvider_Selection(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
	}{
		{config.MailProviderSendGrid, "sendgrid"},
		{config.MailProviderMailgun, "mailgun"},
		{config.MailProviderSMTP, "smtp"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(mailConfig(tt.provider), testLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNewProvider_UnknownName(t *testing.T) {
	_, err := NewProvider(mailConfig("pigeon"), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pigeon")
}

func TestSMTPProvider_MissingHostIsNotConfigured(t *testing.T) {
	// A relay provider without a host must fail as a configuration
	// problem, not a network one.
	cfg := mailConfig(config.MailProviderSMTP)
	cfg.SMTP = config.SMTPConfig{Port: 587, Username: "u", Password: "p"}

	p := newSMTPProvider(cfg, testLogger())
	_, err := p.Send(context.Background(), &Message{To: "ops@example.com", Subject: "s", Text: "t"})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

func TestSendGridProvider_MissingKeyIsNotConfigured(t *testing.T) {
	p := newSendGridProvider(mailConfig(config.MailProviderSendGrid), testLogger())
	_, err := p.Send(context.Background(), &Message{To: "ops@example.com", Subject: "s", Text: "t"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendGridProvider_Send(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("X-Message-Id", "sg-msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := mailConfig(config.MailProviderSendGrid)
	cfg.SendGrid.APIKey = "SG.test-key"
	p := newSendGridProvider(cfg, testLogger())
	p.client.Request.BaseURL = srv.URL

	id, err := p.Send(context.Background(), &Message{
		To:      "ops@example.com",
		Subject: "Incidents Report",
		Text:    "attached",
		Attachment: &Attachment{
			Filename: "report.pdf",
			MIMEType: "application/pdf",
			Content:  []byte("%PDF"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "sg-msg-1", id)
	assert.Equal(t, "Bearer SG.test-key", gotAuth)
}

func TestSendGridProvider_RejectionIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"bad payload"}]}`))
	}))
	defer srv.Close()

	cfg := mailConfig(config.MailProviderSendGrid)
	cfg.SendGrid.APIKey = "SG.test-key"
	p := newSendGridProvider(cfg, testLogger())
	p.client.Request.BaseURL = srv.URL

	_, err := p.Send(context.Background(), &Message{To: "ops@example.com", Subject: "s", Text: "t"})
	require.ErrorIs(t, err, ErrRejected)
}

func TestMailgunProvider_MissingCredsIsNotConfigured(t *testing.T) {
	p := newMailgunProvider(mailConfig(config.MailProviderMailgun), testLogger())
	_, err := p.Send(context.Background(), &Message{To: "ops@example.com", Subject: "s", Text: "t"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestMailgunProvider_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"<mg-msg-1@example.com>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	cfg := mailConfig(config.MailProviderMailgun)
	cfg.Mailgun = config.MailgunConfig{
		Domain:  "mg.example.com",
		APIKey:  "key-test",
		BaseURL: srv.URL + "/v3",
	}
	p := newMailgunProvider(cfg, testLogger())

	id, err := p.Send(context.Background(), &Message{
		To:      "ops@example.com",
		Subject: "Incidents Report",
		Text:    "attached",
	})
	require.NoError(t, err)
	assert.Equal(t, "<mg-msg-1@example.com>", id)
}

func TestMailgunProvider_RejectionIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"'to' parameter is not a valid address"}`))
	}))
	defer srv.Close()

	cfg := mailConfig(config.MailProviderMailgun)
	cfg.Mailgun = config.MailgunConfig{
		Domain:  "mg.example.com",
		APIKey:  "key-test",
		BaseURL: srv.URL + "/v3",
	}
	p := newMailgunProvider(cfg, testLogger())

	_, err := p.Send(context.Background(), &Message{To: "ops@example.com", Subject: "s", Text: "t"})
	require.ErrorIs(t, err, ErrRejected)
}
