package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

type memoryNotifications struct {
	mu    sync.Mutex
	items []ports.Notification
	err   error
}

func (m *memoryNotifications) CreateNotification(_ context.Context, n ports.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
	return nil
}

func (m *memoryNotifications) ListNotifications(context.Context, string, bool) ([]ports.Notification, error) {
	return m.items, nil
}

func (m *memoryNotifications) MarkRead(context.Context, string, []string) (int64, error) {
	return 0, nil
}

type recordingSender struct {
	sent  []ports.EmailMessage
	err   error
	block bool
}

func (s *recordingSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	s.sent = append(s.sent, msg)
	return s.err
}

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
	block    bool
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func learnerMember() ports.Member {
	return ports.Member{
		Membership: ports.Membership{ID: "m-learner", BusinessID: "b-1"},
		Email:      "lee@example.com",
		FullName:   "Lee Learner",
	}
}

func TestRecordPersistsNotification(t *testing.T) {
	repo := &memoryNotifications{}
	d := NewDispatcher(repo, nil, nil, 0)
	d.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	pending, err := d.Record(context.Background(), ports.Notice{
		Recipient:    learnerMember(),
		Message:      "Your latest Submission for '1.1.1' has been Accepted.",
		SubmissionID: "ev-1",
		TemplateID:   workflow.TemplateDecision,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("notifications = %d, want 1", len(repo.items))
	}
	row := repo.items[0]
	if row.ID != pending.NotificationID || row.RecipientMembershipID != "m-learner" || row.SubmissionID != "ev-1" {
		t.Fatalf("notification row = %+v", row)
	}
	if row.CreatedAt != "2026-03-01T09:00:00.000000000Z" {
		t.Fatalf("CreatedAt = %q", row.CreatedAt)
	}

	if _, err := d.Record(context.Background(), ports.Notice{Recipient: learnerMember()}); err == nil {
		t.Fatalf("Record() expected error for empty message")
	}
}

func TestRecordPropagatesRepositoryError(t *testing.T) {
	boom := errors.New("disk full")
	d := NewDispatcher(&memoryNotifications{err: boom}, nil, nil, 0)
	if _, err := d.Record(context.Background(), ports.Notice{Recipient: learnerMember(), Message: "m"}); !errors.Is(err, boom) {
		t.Fatalf("Record() error = %v, want %v", err, boom)
	}
}

func TestDeliverSendsEmailAndPublishesEvent(t *testing.T) {
	sender := &recordingSender{}
	events := &recordingPublisher{}
	d := NewDispatcher(&memoryNotifications{}, sender, events, time.Second)

	warnings := d.Deliver(context.Background(), []ports.PendingDelivery{{
		NotificationID: "n-1",
		Notice: ports.Notice{
			Recipient:  learnerMember(),
			Message:    "accepted",
			TemplateID: workflow.TemplateDecision,
			Data:       map[string]any{"criterion": "1.1.1"},
		},
	}})
	if len(warnings) != 0 {
		t.Fatalf("Deliver() warnings = %v", warnings)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ToAddress != "lee@example.com" || msg.TemplateID != workflow.TemplateDecision || msg.Data["criterion"] != "1.1.1" {
		t.Fatalf("email = %+v", msg)
	}
	if msg.Subject == "" {
		t.Fatalf("email subject is empty")
	}

	if len(events.subjects) != 1 || events.subjects[0] != "notification.created" {
		t.Fatalf("event subjects = %v", events.subjects)
	}
	var event map[string]string
	if err := json.Unmarshal(events.payloads[0], &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event["notification_id"] != "n-1" || event["business_id"] != "b-1" {
		t.Fatalf("event = %v", event)
	}
}

func TestDeliverTurnsFailuresIntoWarnings(t *testing.T) {
	sender := &recordingSender{err: errors.New("sendgrid unavailable")}
	events := &recordingPublisher{err: errors.New("nats down")}
	d := NewDispatcher(&memoryNotifications{}, sender, events, time.Second)

	noEmail := learnerMember()
	noEmail.Email = ""

	warnings := d.Deliver(context.Background(), []ports.PendingDelivery{
		{NotificationID: "n-1", Notice: ports.Notice{Recipient: learnerMember(), Message: "a"}},
		{NotificationID: "n-2", Notice: ports.Notice{Recipient: noEmail, Message: "b"}},
	})
	if len(warnings) != 2 {
		t.Fatalf("Deliver() warnings = %v, want 2", warnings)
	}
	if !strings.Contains(warnings[0], "sendgrid unavailable") {
		t.Fatalf("warning[0] = %q", warnings[0])
	}
	if !strings.Contains(warnings[1], "no email address") {
		t.Fatalf("warning[1] = %q", warnings[1])
	}
}

func TestDeliverBoundsSlowProvider(t *testing.T) {
	d := NewDispatcher(&memoryNotifications{}, &recordingSender{block: true}, nil, 20*time.Millisecond)

	start := time.Now()
	warnings := d.Deliver(context.Background(), []ports.PendingDelivery{
		{NotificationID: "n-1", Notice: ports.Notice{Recipient: learnerMember(), Message: "a"}},
	})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Deliver() took %s", elapsed)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "deadline") {
		t.Fatalf("Deliver() warnings = %v", warnings)
	}
}

func TestDeliverSharesOneDeadlineAcrossBatch(t *testing.T) {
	const timeout = 100 * time.Millisecond
	d := NewDispatcher(&memoryNotifications{}, &recordingSender{block: true}, &recordingPublisher{block: true}, timeout)

	deliveries := make([]ports.PendingDelivery, 0, 4)
	for _, id := range []string{"n-1", "n-2", "n-3", "n-4"} {
		deliveries = append(deliveries, ports.PendingDelivery{NotificationID: id, Notice: ports.Notice{Recipient: learnerMember(), Message: id}})
	}

	start := time.Now()
	warnings := d.Deliver(context.Background(), deliveries)
	elapsed := time.Since(start)

	// Eight blocking sends would take 8x the timeout if each had its own deadline.
	if elapsed > 4*timeout {
		t.Fatalf("Deliver() took %s, want about %s", elapsed, timeout)
	}
	if len(warnings) != len(deliveries) {
		t.Fatalf("Deliver() warnings = %v, want %d", warnings, len(deliveries))
	}
	for _, warning := range warnings {
		if !strings.Contains(warning, "deadline") {
			t.Fatalf("warning = %q", warning)
		}
	}
}
