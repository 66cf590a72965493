package model

type Message struct {
	ID                 string  `gorm:"column:id;type:text;primaryKey"`
	BusinessID         string  `gorm:"column:business_id;type:text;not null;index:ix_message_business_subject"`
	SenderMembershipID string  `gorm:"column:sender_membership_id;type:text;not null;index"`
	QualificationID    *string `gorm:"column:qualification_id;type:text"`
	Subject            string  `gorm:"column:subject;type:text;not null;index:ix_message_business_subject"`
	Body               string  `gorm:"column:body;type:text;not null"`
	AttachmentName     *string `gorm:"column:attachment_name;type:text"`
	AttachmentKey      *string `gorm:"column:attachment_key;type:text"`
	AttachmentSize     int64   `gorm:"column:attachment_size;not null;default:0"`
	SentAt             string  `gorm:"column:sent_at;type:text;not null"`

	Business      *Business      `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
	Sender        *Membership    `gorm:"foreignKey:SenderMembershipID;constraint:OnDelete:CASCADE"`
	Qualification *Qualification `gorm:"foreignKey:QualificationID;constraint:OnDelete:SET NULL"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageRecipient is keyed by (message_id, recipient_membership_id) so a
// member receives a message once.
type MessageRecipient struct {
	MessageID             string  `gorm:"column:message_id;type:text;primaryKey"`
	RecipientMembershipID string  `gorm:"column:recipient_membership_id;type:text;primaryKey;index"`
	IsRead                bool    `gorm:"column:is_read;not null"`
	ReadAt                *string `gorm:"column:read_at;type:text"`

	Message   *Message    `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
	Recipient *Membership `gorm:"foreignKey:RecipientMembershipID;constraint:OnDelete:CASCADE"`
}

func (MessageRecipient) TableName() string {
	return "message_recipients"
}
