package ports

import "context"

type EmailMessage struct {
	ToAddress  string
	ToName     string
	Subject    string
	TemplateID string
	Data       map[string]any
	Body       string
}

type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
