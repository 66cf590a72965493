package model

type Sampling struct {
	ID              string `gorm:"column:id;type:text;primaryKey"`
	IQAMembershipID string `gorm:"column:iqa_membership_id;type:text;not null;index"`
	LearnerID       string `gorm:"column:learner_id;type:text;not null;index"`
	UnitID          string `gorm:"column:unit_id;type:text;not null;index"`
	EvidenceID      string `gorm:"column:evidence_id;type:text;not null"`
	SamplingType    string `gorm:"column:sampling_type;type:text;not null"`
	Outcome         string `gorm:"column:outcome;type:text;not null"`
	Comments        string `gorm:"column:comments;type:text;not null;default:''"`
	CreatedAt       string `gorm:"column:created_at;type:text;not null"`

	Learner  *LearnerAssignment  `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE"`
	Unit     *Unit               `gorm:"foreignKey:UnitID;constraint:OnDelete:RESTRICT"`
	Evidence *EvidenceSubmission `gorm:"foreignKey:EvidenceID;constraint:OnDelete:RESTRICT"`
}

func (Sampling) TableName() string {
	return "samplings"
}

type IQAFeedback struct {
	ID                   string `gorm:"column:id;type:text;primaryKey"`
	SamplingID           string `gorm:"column:sampling_id;type:text;not null;index"`
	AssessorMembershipID string `gorm:"column:assessor_membership_id;type:text;not null;index"`
	Feedback             string `gorm:"column:feedback;type:text;not null"`
	CreatedAt            string `gorm:"column:created_at;type:text;not null"`

	Sampling *Sampling `gorm:"foreignKey:SamplingID;constraint:OnDelete:CASCADE"`
}

func (IQAFeedback) TableName() string {
	return "iqa_feedback"
}

type AssessorFeedback struct {
	ID                   string `gorm:"column:id;type:text;primaryKey"`
	IQAMembershipID      string `gorm:"column:iqa_membership_id;type:text;not null;index"`
	AssessorMembershipID string `gorm:"column:assessor_membership_id;type:text;not null;index"`
	QualificationID      string `gorm:"column:qualification_id;type:text;not null"`
	SamplingType         string `gorm:"column:sampling_type;type:text;not null"`
	Date                 string `gorm:"column:date;type:text;not null"`
	Comments             string `gorm:"column:comments;type:text;not null"`
	CreatedAt            string `gorm:"column:created_at;type:text;not null"`

	Qualification *Qualification `gorm:"foreignKey:QualificationID;constraint:OnDelete:CASCADE"`
}

func (AssessorFeedback) TableName() string {
	return "assessor_feedback"
}
