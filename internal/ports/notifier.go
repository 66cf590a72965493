package ports

import "context"

// Notice is one workflow transition addressed to a member.
type Notice struct {
	Recipient    Member
	Message      string
	SubmissionID string
	TemplateID   string
	Data         map[string]any
}

// PendingDelivery is what Record leaves for Deliver once the transaction commits.
type PendingDelivery struct {
	NotificationID string
	Notice         Notice
}

// Notifier persists notifications inside a transaction and delivers them after commit.
// Deliver never fails; problems come back as warnings.
type Notifier interface {
	Record(ctx context.Context, notice Notice) (PendingDelivery, error)
	Deliver(ctx context.Context, deliveries []PendingDelivery) []string
}
