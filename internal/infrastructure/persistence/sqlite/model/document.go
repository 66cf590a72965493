package model

type DocumentRequirement struct {
	ID              string  `gorm:"column:id;type:text;primaryKey"`
	QualificationID string  `gorm:"column:qualification_id;type:text;not null;index"`
	Title           string  `gorm:"column:title;type:text;not null"`
	Description     string  `gorm:"column:description;type:text;not null;default:''"`
	TemplateName    *string `gorm:"column:template_name;type:text"`
	TemplateKey     *string `gorm:"column:template_key;type:text"`
	TemplateSize    int64   `gorm:"column:template_size;not null;default:0"`
	CreatedAt       string  `gorm:"column:created_at;type:text;not null"`

	Qualification *Qualification `gorm:"foreignKey:QualificationID;constraint:OnDelete:CASCADE"`
}

func (DocumentRequirement) TableName() string {
	return "document_requirements"
}

type DocumentSubmission struct {
	ID                   string  `gorm:"column:id;type:text;primaryKey"`
	LearnerID            string  `gorm:"column:learner_id;type:text;not null;uniqueIndex:ux_document_learner_requirement"`
	RequirementID        string  `gorm:"column:requirement_id;type:text;not null;uniqueIndex:ux_document_learner_requirement"`
	FileName             string  `gorm:"column:file_name;type:text;not null"`
	FileKey              string  `gorm:"column:file_key;type:text;not null"`
	FileSize             int64   `gorm:"column:file_size;not null;default:0"`
	Status               string  `gorm:"column:status;type:text;not null"`
	Comments             string  `gorm:"column:comments;type:text;not null;default:''"`
	AssessorMembershipID *string `gorm:"column:assessor_membership_id;type:text"`
	SubmittedAt          string  `gorm:"column:submitted_at;type:text;not null"`
	UpdatedAt            string  `gorm:"column:updated_at;type:text;not null"`

	Learner     *LearnerAssignment   `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE"`
	Requirement *DocumentRequirement `gorm:"foreignKey:RequirementID;constraint:OnDelete:RESTRICT"`
}

func (DocumentSubmission) TableName() string {
	return "document_submissions"
}

type DocumentRemark struct {
	ID              string `gorm:"column:id;type:text;primaryKey"`
	SubmissionID    string `gorm:"column:submission_id;type:text;not null;uniqueIndex:ux_remark_submission_iqa"`
	IQAMembershipID string `gorm:"column:iqa_membership_id;type:text;not null;uniqueIndex:ux_remark_submission_iqa"`
	Remark          string `gorm:"column:remark;type:text;not null"`
	Comments        string `gorm:"column:comments;type:text;not null;default:''"`
	CreatedAt       string `gorm:"column:created_at;type:text;not null"`

	Submission *DocumentSubmission `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (DocumentRemark) TableName() string {
	return "document_remarks"
}
