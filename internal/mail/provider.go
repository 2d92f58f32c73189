package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/config"
)

// Message is one rendered email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string // omitted when empty
}

// Provider delivers rendered messages.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// NewFromConfig builds the provider selected by MAIL_PROVIDER.
func NewFromConfig(cfg config.MailConfig) (Provider, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		}), nil
	case "resend":
		return NewResend(cfg.ResendAPIKey, cfg.From), nil
	case "log", "":
		return &LogProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	for _, to := range msg.To {
		if strings.ContainsAny(to, "\r\n") {
			return fmt.Errorf("mail: invalid recipient %q", to)
		}
	}
	if strings.ContainsAny(msg.Subject+msg.ReplyTo, "\r\n") {
		return errors.New("mail: header contains line break")
	}
	return nil
}

// LogProvider writes messages to the log instead of sending them.
type LogProvider struct{}

func (p *LogProvider) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("reply_to", msg.ReplyTo).
		Int("html_bytes", len(msg.HTML)).
		Msg("Email (log provider)")
	return nil
}
