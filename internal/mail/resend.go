package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"

	"CampusPortal/internal/config"
)

type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(cfg config.MailConfig) (*ResendSender, error) {
	if cfg.ResendAPIKey == "" || cfg.From == "" {
		return nil, errors.New("resend mail channel needs RESEND_API_KEY and FROM_EMAIL")
	}
	return &ResendSender{client: resend.NewClient(cfg.ResendAPIKey), from: cfg.From}, nil
}

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("sending email through resend: %w", err)
	}
	return nil
}

func (s *ResendSender) Enabled() bool { return true }
