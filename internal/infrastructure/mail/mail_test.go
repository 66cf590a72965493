package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"assesseez/internal/bootstrap/config"
	"assesseez/internal/ports"
)

type fakeSendgridClient struct {
	sent   []*sgmail.SGMailV3
	status int
	err    error
}

func (f *fakeSendgridClient) SendWithContext(_ context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "bad request"}, nil
}

func TestNewSenderSelectsProvider(t *testing.T) {
	testCases := []struct {
		provider string
		check    func(ports.EmailSender) bool
	}{
		{provider: "console", check: func(s ports.EmailSender) bool { _, ok := s.(*ConsoleSender); return ok }},
		{provider: "NONE", check: func(s ports.EmailSender) bool { _, ok := s.(NoopSender); return ok }},
		{provider: "sendgrid", check: func(s ports.EmailSender) bool { _, ok := s.(*SendgridSender); return ok }},
	}
	for _, tc := range testCases {
		sender, err := NewSender(config.MailConfig{Provider: tc.provider, SendgridAPIKey: "key"})
		if err != nil {
			t.Fatalf("NewSender(%s) error = %v", tc.provider, err)
		}
		if !tc.check(sender) {
			t.Fatalf("NewSender(%s) = %T", tc.provider, sender)
		}
	}
	if _, err := NewSender(config.MailConfig{Provider: "smtp"}); err == nil {
		t.Fatalf("NewSender(smtp) expected error")
	}
}

func TestConsoleSenderWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	sender := NewConsoleSender(&buf)

	err := sender.Send(context.Background(), ports.EmailMessage{
		ToAddress:  "assessor@example.com",
		ToName:     "Sam Assessor",
		Subject:    "New submission",
		TemplateID: "submission_received",
		Data:       map[string]any{"learner": "Lee"},
		Body:       "Lee submitted evidence.",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"assessor@example.com", "submission_received", "learner: Lee", "Lee submitted evidence."} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q:\n%s", want, out)
		}
	}

	if err := sender.Send(context.Background(), ports.EmailMessage{}); err == nil {
		t.Fatalf("Send() expected error without recipient")
	}
}

func TestSendgridSenderUsesTemplatesWhenMapped(t *testing.T) {
	client := &fakeSendgridClient{status: 202}
	sender := NewSendgridSender(config.MailConfig{
		FromName:    "AssessEEZ",
		FromAddress: "no-reply@example.com",
		Templates:   map[string]string{"decision": "d-123"},
	})
	sender.client = client

	if err := sender.Send(context.Background(), ports.EmailMessage{
		ToAddress: "learner@example.com", Subject: "Decision", TemplateID: "decision",
		Data: map[string]any{"status": "Accepted"}, Body: "accepted",
	}); err != nil {
		t.Fatalf("Send(template) error = %v", err)
	}
	if err := sender.Send(context.Background(), ports.EmailMessage{
		ToAddress: "learner@example.com", Subject: "Hello", TemplateID: "notification", Body: "plain",
	}); err != nil {
		t.Fatalf("Send(plain) error = %v", err)
	}

	if len(client.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(client.sent))
	}
	templated := client.sent[0]
	if templated.TemplateID != "d-123" {
		t.Fatalf("TemplateID = %q", templated.TemplateID)
	}
	if got := templated.Personalizations[0].DynamicTemplateData["status"]; got != "Accepted" {
		t.Fatalf("dynamic data status = %v", got)
	}
	plain := client.sent[1]
	if plain.TemplateID != "" || len(plain.Content) != 1 || plain.Content[0].Value != "plain" {
		t.Fatalf("plain message = %+v", plain)
	}
	if plain.Personalizations[0].Subject != "[AssessEEZ] Hello" {
		t.Fatalf("subject = %q", plain.Personalizations[0].Subject)
	}
}

func TestSendgridSenderReportsFailures(t *testing.T) {
	sender := NewSendgridSender(config.MailConfig{FromAddress: "no-reply@example.com"})

	sender.client = &fakeSendgridClient{status: 400}
	if err := sender.Send(context.Background(), ports.EmailMessage{ToAddress: "a@example.com"}); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("Send() status error = %v", err)
	}

	boom := errors.New("dial tcp: timeout")
	sender.client = &fakeSendgridClient{err: boom}
	if err := sender.Send(context.Background(), ports.EmailMessage{ToAddress: "a@example.com"}); !errors.Is(err, boom) {
		t.Fatalf("Send() transport error = %v", err)
	}
}
