package mail

import (
	"context"
	"fmt"
	"strings"

	"assesseez/internal/bootstrap/config"
	"assesseez/internal/ports"
)

// NewSender picks the EmailSender for the configured provider.
func NewSender(cfg config.MailConfig) (ports.EmailSender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "sendgrid":
		return NewSendgridSender(cfg), nil
	case "none":
		return NoopSender{}, nil
	case "console", "":
		return NewConsoleSender(nil), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}
}

// NoopSender drops every message.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, _ ports.EmailMessage) error {
	if ctx == nil {
		return fmt.Errorf("context is required")
	}
	return nil
}
