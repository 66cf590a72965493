package ports

import "context"

type Notification struct {
	ID                    string
	RecipientMembershipID string
	SubmissionID          string
	Message               string
	IsRead                bool
	CreatedAt             string
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, recipientMembershipID string, unreadOnly bool) ([]Notification, error)
	// MarkRead only touches notifications owned by the recipient.
	MarkRead(ctx context.Context, recipientMembershipID string, notificationIDs []string) (int64, error)
}
