package ports

import (
	"context"

	"assesseez/internal/domain/workflow"
)

type Message struct {
	ID                 string
	BusinessID         string
	SenderMembershipID string
	QualificationID    string
	Subject            string
	Body               string
	Attachment         *workflow.FileRef
	SentAt             string
	Recipients         []MessageRecipient
}

// MessageRecipient is the per-recipient delivery row; ReadAt is empty while unread.
type MessageRecipient struct {
	MessageID             string
	RecipientMembershipID string
	IsRead                bool
	ReadAt                string
}

// Addressed reports whether membershipID sent or received m.
func (m Message) Addressed(membershipID string) bool {
	if m.SenderMembershipID == membershipID {
		return true
	}
	for _, recipient := range m.Recipients {
		if recipient.RecipientMembershipID == membershipID {
			return true
		}
	}
	return false
}

type MessageRepository interface {
	// CreateMessage stores the message and one recipient row per member.
	// A repeated recipient returns ErrDuplicate.
	CreateMessage(ctx context.Context, message Message) error
	GetMessage(ctx context.Context, messageID string) (Message, error)
	// ListReceived returns messages addressed to the member, newest first.
	ListReceived(ctx context.Context, membershipID string) ([]Message, error)
	// ListSent returns messages the member sent, newest first.
	ListSent(ctx context.Context, membershipID string) ([]Message, error)
	// ListThread returns messages with the subject that the member sent or
	// received in the business, oldest first.
	ListThread(ctx context.Context, businessID string, membershipID string, subject string) ([]Message, error)
	// MarkRead flags the member's unread recipient rows for the messages.
	MarkRead(ctx context.Context, membershipID string, messageIDs []string, readAt string) (int64, error)
	CountUnread(ctx context.Context, membershipID string) (int64, error)
}
