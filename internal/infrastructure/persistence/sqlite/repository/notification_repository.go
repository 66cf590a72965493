package repository

import (
	"context"

	"gorm.io/gorm"

	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) CreateNotification(ctx context.Context, notification ports.Notification) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Notification{
		ID:                    notification.ID,
		RecipientMembershipID: notification.RecipientMembershipID,
		SubmissionID:          optionalString(notification.SubmissionID),
		Message:               notification.Message,
		IsRead:                notification.IsRead,
		CreatedAt:             notification.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert notification")
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, recipientMembershipID string, unreadOnly bool) ([]ports.Notification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	query := db.Where("recipient_membership_id = ?", recipientMembershipID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var rows []model.Notification
	if err := query.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query notifications")
	}
	items := make([]ports.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Notification{
			ID:                    row.ID,
			RecipientMembershipID: row.RecipientMembershipID,
			SubmissionID:          derefString(row.SubmissionID),
			Message:               row.Message,
			IsRead:                row.IsRead,
			CreatedAt:             row.CreatedAt,
		})
	}
	return items, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientMembershipID string, notificationIDs []string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}
	query := db.Model(&model.Notification{}).Where("recipient_membership_id = ? AND is_read = ?", recipientMembershipID, false)
	if len(notificationIDs) > 0 {
		query = query.Where("id IN ?", notificationIDs)
	}
	result := query.Update("is_read", true)
	if result.Error != nil {
		return 0, translate(result.Error, "mark notifications read")
	}
	return result.RowsAffected, nil
}
