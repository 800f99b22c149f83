package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"CampusPortal/internal/config"
)

func TestNewSender(t *testing.T) {
	tests := []struct {
		name    string
		mail    config.MailConfig
		enabled bool
		wantErr bool
	}{
		{name: "default", mail: config.MailConfig{}},
		{name: "none", mail: config.MailConfig{Provider: config.MailNone}},
		{name: "resend", mail: config.MailConfig{Provider: config.MailResend, ResendAPIKey: "re_x", From: "noreply@campus.edu"}, enabled: true},
		{name: "resend without key", mail: config.MailConfig{Provider: config.MailResend, From: "noreply@campus.edu"}, wantErr: true},
		{name: "smtp", mail: config.MailConfig{Provider: config.MailSMTP, SMTPHost: "localhost", SMTPPort: 25, From: "noreply@campus.edu"}, enabled: true},
		{name: "smtp without host", mail: config.MailConfig{Provider: config.MailSMTP, From: "noreply@campus.edu"}, wantErr: true},
		{name: "unknown", mail: config.MailConfig{Provider: "pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			sender, err := NewSender(lc, &config.Config{Mail: tt.mail}, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, sender.Enabled())
		})
	}
}

func TestSMTPSenderHonorsCancelledContext(t *testing.T) {
	sender, err := NewSMTPSender(config.MailConfig{SMTPHost: "localhost", SMTPPort: 25, From: "noreply@campus.edu"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, "a@campus.edu", "hi", "<p>hi</p>"), context.Canceled)
}
