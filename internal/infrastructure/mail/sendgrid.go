package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"assesseez/internal/bootstrap/config"
	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendgridSender delivers through the SendGrid v3 API. Workflow template names
// found in Templates are sent as dynamic templates; the rest go out as plain text.
type SendgridSender struct {
	client     sendgridClient
	from       *sgmail.Email
	subjPrefix string
	templates  map[string]string
}

func NewSendgridSender(cfg config.MailConfig) *SendgridSender {
	return &SendgridSender{
		client:     sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: subjectPrefix(cfg.FromName),
		templates:  cfg.Templates,
	}
}

func (s *SendgridSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(msg.ToAddress) == "" {
		return errors.New("recipient address is required")
	}

	res, err := s.client.SendWithContext(ctx, s.prepare(msg))
	if err != nil {
		return errs.Wrap(err, "sendgrid send")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, strings.TrimSpace(res.Body))
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "mail.sendgrid")),
		"email accepted by sendgrid",
		slog.String("to", msg.ToAddress),
		slog.Int("status", res.StatusCode),
	)
	return nil
}

func (s *SendgridSender) prepare(msg ports.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))
	p.Subject = s.subjPrefix + msg.Subject

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)

	if templateID, ok := s.templates[msg.TemplateID]; ok && templateID != "" {
		for key, value := range msg.Data {
			p.SetDynamicTemplateData(key, value)
		}
		p.SetDynamicTemplateData("subject", p.Subject)
		p.SetDynamicTemplateData("body", msg.Body)
		m.SetTemplateID(templateID)
	} else {
		m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	}
	m.AddPersonalizations(p)
	return m
}

func subjectPrefix(appName string) string {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return ""
	}
	return "[" + appName + "] "
}
