package model

type Notification struct {
	ID                    string  `gorm:"column:id;type:text;primaryKey"`
	RecipientMembershipID string  `gorm:"column:recipient_membership_id;type:text;not null;index"`
	SubmissionID          *string `gorm:"column:submission_id;type:text"`
	Message               string  `gorm:"column:message;type:text;not null"`
	IsRead                bool    `gorm:"column:is_read;not null"`
	CreatedAt             string  `gorm:"column:created_at;type:text;not null"`

	Recipient *Membership `gorm:"foreignKey:RecipientMembershipID;constraint:OnDelete:CASCADE"`
}

func (Notification) TableName() string {
	return "notifications"
}
