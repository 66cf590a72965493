package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

const (
	defaultTimeout      = 10 * time.Second
	timeLayout          = "2006-01-02T15:04:05.000000000Z07:00"
	notificationSubject = "notification.created"
)

var subjects = map[string]string{
	workflow.TemplateSubmissionReceived: "New submission awaiting review",
	workflow.TemplateDecision:           "Your submission has been reviewed",
	workflow.TemplateNonConformance:     "Non-Conformance raised",
	workflow.TemplateNotification:       "You have a new notification",
	workflow.TemplateMessage:            "You have a new message",
}

// Dispatcher persists notifications with the workflow change and sends email
// and events once the change is committed.
type Dispatcher struct {
	repo    ports.NotificationRepository
	sender  ports.EmailSender
	events  ports.EventPublisher
	timeout time.Duration
	now     func() time.Time
}

var _ ports.Notifier = (*Dispatcher)(nil)

func NewDispatcher(repo ports.NotificationRepository, sender ports.EmailSender, events ports.EventPublisher, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		repo:    repo,
		sender:  sender,
		events:  events,
		timeout: timeout,
		now:     time.Now,
	}
}

func (d *Dispatcher) Record(ctx context.Context, notice ports.Notice) (ports.PendingDelivery, error) {
	if ctx == nil {
		return ports.PendingDelivery{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.PendingDelivery{}, errs.Wrap(err, "check context")
	}
	if d.repo == nil {
		return ports.PendingDelivery{}, errors.New("notification repository is required")
	}
	if strings.TrimSpace(notice.Recipient.ID) == "" {
		return ports.PendingDelivery{}, errors.New("notification recipient is required")
	}
	if strings.TrimSpace(notice.Message) == "" {
		return ports.PendingDelivery{}, errors.New("notification message is required")
	}

	row := ports.Notification{
		ID:                    uuid.NewString(),
		RecipientMembershipID: notice.Recipient.ID,
		SubmissionID:          notice.SubmissionID,
		Message:               notice.Message,
		CreatedAt:             d.now().UTC().Format(timeLayout),
	}
	if err := d.repo.CreateNotification(ctx, row); err != nil {
		return ports.PendingDelivery{}, errs.Wrap(err, "create notification")
	}
	return ports.PendingDelivery{NotificationID: row.ID, Notice: notice}, nil
}

// Deliver sends every email and event under one shared deadline, so a batch
// never waits longer than the configured timeout. Failures become warnings.
func (d *Dispatcher) Deliver(ctx context.Context, deliveries []ports.PendingDelivery) []string {
	if ctx == nil || len(deliveries) == 0 {
		return nil
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "notify.dispatcher"))
	sendCtx, cancel := context.WithTimeout(logCtx, d.timeout)
	defer cancel()

	var warnings []string
	for _, delivery := range deliveries {
		if warning := d.sendEmail(sendCtx, delivery); warning != "" {
			warnings = append(warnings, warning)
		}
		d.publish(sendCtx, delivery)
	}
	return warnings
}

func (d *Dispatcher) sendEmail(ctx context.Context, delivery ports.PendingDelivery) string {
	recipient := delivery.Notice.Recipient
	if d.sender == nil {
		return ""
	}
	if strings.TrimSpace(recipient.Email) == "" {
		logging.Warn(ctx, "notification recipient has no email", slog.String("membership_id", recipient.ID))
		return fmt.Sprintf("%s has no email address; notification saved without email", recipient.DisplayName())
	}

	err := d.sender.Send(ctx, buildEmail(delivery))
	if err == nil {
		return ""
	}
	logging.Warn(
		ctx,
		"notification email failed",
		slog.String("notification_id", delivery.NotificationID),
		slog.String("to", recipient.Email),
		slog.Any("err", errs.Loggable(err)),
	)
	return fmt.Sprintf("email to %s could not be sent: %v", recipient.Email, err)
}

func (d *Dispatcher) publish(ctx context.Context, delivery ports.PendingDelivery) {
	if d.events == nil {
		return
	}
	payload, err := json.Marshal(notificationEvent{
		NotificationID: delivery.NotificationID,
		RecipientID:    delivery.Notice.Recipient.ID,
		BusinessID:     delivery.Notice.Recipient.BusinessID,
		SubmissionID:   delivery.Notice.SubmissionID,
		TemplateID:     templateOf(delivery.Notice),
		Message:        delivery.Notice.Message,
	})
	if err != nil {
		logging.Warn(ctx, "encode notification event failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	if err := d.events.Publish(ctx, notificationSubject, payload); err != nil {
		logging.Warn(
			ctx,
			"notification event publish failed",
			slog.String("notification_id", delivery.NotificationID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

type notificationEvent struct {
	NotificationID string `json:"notification_id"`
	RecipientID    string `json:"recipient_membership_id"`
	BusinessID     string `json:"business_id"`
	SubmissionID   string `json:"submission_id,omitempty"`
	TemplateID     string `json:"template_id"`
	Message        string `json:"message"`
}

func buildEmail(delivery ports.PendingDelivery) ports.EmailMessage {
	notice := delivery.Notice
	template := templateOf(notice)

	data := make(map[string]any, len(notice.Data)+3)
	for key, value := range notice.Data {
		data[key] = value
	}
	data["recipient_name"] = notice.Recipient.DisplayName()
	data["message"] = notice.Message
	data["notification_id"] = delivery.NotificationID

	return ports.EmailMessage{
		ToAddress:  notice.Recipient.Email,
		ToName:     notice.Recipient.FullName,
		Subject:    subjects[template],
		TemplateID: template,
		Data:       data,
		Body:       notice.Message,
	}
}

func templateOf(notice ports.Notice) string {
	if _, ok := subjects[notice.TemplateID]; ok {
		return notice.TemplateID
	}
	return workflow.TemplateNotification
}
