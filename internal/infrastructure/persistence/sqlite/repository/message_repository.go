package repository

import (
	"context"

	"gorm.io/gorm"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

func (r *MessageRepository) CreateMessage(ctx context.Context, message ports.Message) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		row := model.Message{
			ID:                 message.ID,
			BusinessID:         message.BusinessID,
			SenderMembershipID: message.SenderMembershipID,
			QualificationID:    optionalString(message.QualificationID),
			Subject:            message.Subject,
			Body:               message.Body,
			SentAt:             message.SentAt,
		}
		if message.Attachment != nil {
			row.AttachmentName = &message.Attachment.Name
			row.AttachmentKey = &message.Attachment.StorageKey
			row.AttachmentSize = message.Attachment.SizeBytes
		}
		if err := db.Create(&row).Error; err != nil {
			return translate(err, "insert message")
		}
		for _, recipient := range message.Recipients {
			recipientRow := model.MessageRecipient{
				MessageID:             message.ID,
				RecipientMembershipID: recipient.RecipientMembershipID,
				IsRead:                recipient.IsRead,
				ReadAt:                optionalString(recipient.ReadAt),
			}
			if err := db.Create(&recipientRow).Error; err != nil {
				return translate(err, "insert message recipient")
			}
		}
		return nil
	})
}

func (r *MessageRepository) GetMessage(ctx context.Context, messageID string) (ports.Message, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Message{}, err
	}
	var row model.Message
	if err := db.Where("id = ?", messageID).Take(&row).Error; err != nil {
		return ports.Message{}, translate(err, "query message")
	}
	items, err := attachRecipients(db, []model.Message{row})
	if err != nil {
		return ports.Message{}, err
	}
	return items[0], nil
}

func (r *MessageRepository) ListReceived(ctx context.Context, membershipID string) ([]ports.Message, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.Message
	err = db.Where("id IN (?)", db.Model(&model.MessageRecipient{}).
		Select("message_id").Where("recipient_membership_id = ?", membershipID)).
		Order("sent_at desc, id desc").Find(&rows).Error
	if err != nil {
		return nil, translate(err, "query received messages")
	}
	return attachRecipients(db, rows)
}

func (r *MessageRepository) ListSent(ctx context.Context, membershipID string) ([]ports.Message, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.Message
	if err := db.Where("sender_membership_id = ?", membershipID).Order("sent_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query sent messages")
	}
	return attachRecipients(db, rows)
}

func (r *MessageRepository) ListThread(ctx context.Context, businessID string, membershipID string, subject string) ([]ports.Message, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	received := db.Model(&model.MessageRecipient{}).Select("message_id").Where("recipient_membership_id = ?", membershipID)
	var rows []model.Message
	err = db.Where("business_id = ? AND subject = ?", businessID, subject).
		Where(db.Where("sender_membership_id = ?", membershipID).Or("id IN (?)", received)).
		Order("sent_at asc, id asc").Find(&rows).Error
	if err != nil {
		return nil, translate(err, "query message thread")
	}
	return attachRecipients(db, rows)
}

func (r *MessageRepository) MarkRead(ctx context.Context, membershipID string, messageIDs []string, readAt string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}
	query := db.Model(&model.MessageRecipient{}).Where("recipient_membership_id = ? AND is_read = ?", membershipID, false)
	if len(messageIDs) > 0 {
		query = query.Where("message_id IN ?", messageIDs)
	}
	result := query.Updates(map[string]any{"is_read": true, "read_at": readAt})
	if result.Error != nil {
		return 0, translate(result.Error, "mark messages read")
	}
	return result.RowsAffected, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, membershipID string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&model.MessageRecipient{}).
		Where("recipient_membership_id = ? AND is_read = ?", membershipID, false).
		Count(&count).Error; err != nil {
		return 0, translate(err, "count unread messages")
	}
	return count, nil
}

func attachRecipients(db *gorm.DB, rows []model.Message) ([]ports.Message, error) {
	if len(rows) == 0 {
		return []ports.Message{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var recipientRows []model.MessageRecipient
	if err := db.Where("message_id IN ?", ids).Order("recipient_membership_id asc").Find(&recipientRows).Error; err != nil {
		return nil, translate(err, "query message recipients")
	}
	recipients := make(map[string][]ports.MessageRecipient, len(rows))
	for _, row := range recipientRows {
		recipients[row.MessageID] = append(recipients[row.MessageID], ports.MessageRecipient{
			MessageID:             row.MessageID,
			RecipientMembershipID: row.RecipientMembershipID,
			IsRead:                row.IsRead,
			ReadAt:                derefString(row.ReadAt),
		})
	}
	items := make([]ports.Message, 0, len(rows))
	for _, row := range rows {
		message := ports.Message{
			ID:                 row.ID,
			BusinessID:         row.BusinessID,
			SenderMembershipID: row.SenderMembershipID,
			QualificationID:    derefString(row.QualificationID),
			Subject:            row.Subject,
			Body:               row.Body,
			SentAt:             row.SentAt,
			Recipients:         recipients[row.ID],
		}
		if row.AttachmentKey != nil {
			message.Attachment = &workflow.FileRef{
				Name:       derefString(row.AttachmentName),
				StorageKey: *row.AttachmentKey,
				SizeBytes:  row.AttachmentSize,
			}
		}
		items = append(items, message)
	}
	return items, nil
}
