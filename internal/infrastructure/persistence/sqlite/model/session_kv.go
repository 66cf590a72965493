package model

// SessionKV holds small per-person CLI values such as the selected business.
type SessionKV struct {
	Key       string  `gorm:"column:key;type:text;primaryKey"`
	Value     string  `gorm:"column:value;type:text;not null"`
	ExpiresAt *string `gorm:"column:expires_at;type:text"`
	UpdatedAt string  `gorm:"column:updated_at;type:text;not null"`
}

func (SessionKV) TableName() string {
	return "session_kv"
}

// All lists every table in migration order.
func All() []any {
	return []any{
		&Business{},
		&Person{},
		&Membership{},
		&Qualification{},
		&Unit{},
		&LearningOutcome{},
		&AssessmentCriterion{},
		&LearnerAssignment{},
		&StaffAssignment{},
		&EQALearner{},
		&EvidenceSubmission{},
		&EvidenceFile{},
		&Feedback{},
		&WorkbookSubmission{},
		&DocumentRequirement{},
		&DocumentSubmission{},
		&DocumentRemark{},
		&Sampling{},
		&IQAFeedback{},
		&AssessorFeedback{},
		&Notification{},
		&ResourceFolder{},
		&ResourceFolderRole{},
		&ResourceFolderQualification{},
		&ResourceFile{},
		&LearnerFile{},
		&Message{},
		&MessageRecipient{},
		&SessionKV{},
	}
}
