package model

// EvidenceSubmission keeps every upload for a (learner, criterion); only one
// row per pair may be SUBMITTED at a time.
type EvidenceSubmission struct {
	ID                   string  `gorm:"column:id;type:text;primaryKey"`
	LearnerID            string  `gorm:"column:learner_id;type:text;not null;index:ix_evidence_learner_criterion;uniqueIndex:ux_evidence_open,where:status = 'SUBMITTED'"`
	CriterionID          string  `gorm:"column:criterion_id;type:text;not null;index:ix_evidence_learner_criterion;uniqueIndex:ux_evidence_open;index"`
	Detail               string  `gorm:"column:detail;type:text;not null"`
	Status               string  `gorm:"column:status;type:text;not null"`
	AssessorMembershipID *string `gorm:"column:assessor_membership_id;type:text"`
	SubmittedAt          string  `gorm:"column:submitted_at;type:text;not null"`
	UpdatedAt            string  `gorm:"column:updated_at;type:text;not null"`

	Learner   *LearnerAssignment   `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE"`
	Criterion *AssessmentCriterion `gorm:"foreignKey:CriterionID;constraint:OnDelete:RESTRICT"`
}

func (EvidenceSubmission) TableName() string {
	return "evidence_submissions"
}

type EvidenceFile struct {
	ID           string `gorm:"column:id;type:text;primaryKey"`
	SubmissionID string `gorm:"column:submission_id;type:text;not null;index"`
	Name         string `gorm:"column:name;type:text;not null"`
	StorageKey   string `gorm:"column:storage_key;type:text;not null"`
	SizeBytes    int64  `gorm:"column:size_bytes;not null;default:0"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null"`

	Submission *EvidenceSubmission `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (EvidenceFile) TableName() string {
	return "evidence_files"
}

type Feedback struct {
	ID                   string `gorm:"column:id;type:text;primaryKey"`
	SubmissionID         string `gorm:"column:submission_id;type:text;not null;index"`
	AssessorMembershipID string `gorm:"column:assessor_membership_id;type:text;not null"`
	Text                 string `gorm:"column:text;type:text;not null"`
	CreatedAt            string `gorm:"column:created_at;type:text;not null"`

	Submission *EvidenceSubmission `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (Feedback) TableName() string {
	return "feedback"
}

type WorkbookSubmission struct {
	ID                   string  `gorm:"column:id;type:text;primaryKey"`
	LearnerID            string  `gorm:"column:learner_id;type:text;not null;index:ix_workbook_learner_outcome;uniqueIndex:ux_workbook_open,where:status = 'SUBMITTED'"`
	LearningOutcomeID    string  `gorm:"column:learning_outcome_id;type:text;not null;index:ix_workbook_learner_outcome;uniqueIndex:ux_workbook_open;index"`
	Detail               string  `gorm:"column:detail;type:text;not null"`
	Status               string  `gorm:"column:status;type:text;not null"`
	AssessorMembershipID *string `gorm:"column:assessor_membership_id;type:text"`
	FileName             string  `gorm:"column:file_name;type:text;not null"`
	FileKey              string  `gorm:"column:file_key;type:text;not null"`
	FileSize             int64   `gorm:"column:file_size;not null;default:0"`
	SubmittedAt          string  `gorm:"column:submitted_at;type:text;not null"`
	UpdatedAt            string  `gorm:"column:updated_at;type:text;not null"`

	Learner         *LearnerAssignment `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE"`
	LearningOutcome *LearningOutcome   `gorm:"foreignKey:LearningOutcomeID;constraint:OnDelete:RESTRICT"`
}

func (WorkbookSubmission) TableName() string {
	return "workbook_submissions"
}
