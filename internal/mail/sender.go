// Package mail mirrors notifications to e-mail through Resend or SMTP.
package mail

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"CampusPortal/internal/config"
)

// Sender delivers one HTML e-mail.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
	Enabled() bool
}

// NewSender picks the channel configured by MAIL_PROVIDER.
func NewSender(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (Sender, error) {
	var (
		sender Sender
		err    error
	)
	switch cfg.Mail.Provider {
	case "", config.MailNone:
		sender = Noop{}
	case config.MailResend:
		sender, err = NewResendSender(cfg.Mail)
	case config.MailSMTP:
		sender, err = NewSMTPSender(cfg.Mail)
	default:
		err = fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("mail channel initialized", zap.String("provider", cfg.Mail.Provider), zap.Bool("enabled", sender.Enabled()))
			return nil
		},
	})
	return sender, nil
}

// Noop drops every message.
type Noop struct{}

func (Noop) Send(context.Context, string, string, string) error { return nil }

func (Noop) Enabled() bool { return false }
