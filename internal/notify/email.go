package notify

import (
	"context"
	"fmt"

	"meetmed/internal/config"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers a rendered email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an email ready to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string
}

// NewSender returns the sender selected by cfg.Provider.
func NewSender(cfg config.EmailConfig, logger *zerolog.Logger) (EmailSender, error) {
	switch cfg.Provider {
	case "", "stub":
		return NewStubEmailSender(logger), nil
	case "sendgrid":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("notify: sendgrid api key is required")
		}
		return NewSendGridSender(cfg, logger), nil
	default:
		return nil, fmt.Errorf("notify: unknown email provider %q", cfg.Provider)
	}
}

type SendGridSender struct {
	send      func(ctx context.Context, email *mail.SGMailV3) (int, string, error)
	fromEmail string
	fromName  string
	logger    *zerolog.Logger
}

func NewSendGridSender(cfg config.EmailConfig, logger *zerolog.Logger) *SendGridSender {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	return &SendGridSender{
		send: func(ctx context.Context, email *mail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, email)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
		fromEmail: cfg.FromAddress,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

	status, body, err := s.send(ctx, message)
	if err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("sendgrid send failed")
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if status >= 400 {
		s.logger.Error().Int("status", status).Str("body", body).Str("to", msg.To).Msg("sendgrid returned error status")
		return fmt.Errorf("notify: sendgrid returned status %d", status)
	}

	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("status", status).Msg("email sent")
	return nil
}

// StubEmailSender logs instead of sending. Used in development and tests.
type StubEmailSender struct {
	logger *zerolog.Logger
}

func NewStubEmailSender(logger *zerolog.Logger) *StubEmailSender {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("stub email sender: would send email")
	return nil
}
