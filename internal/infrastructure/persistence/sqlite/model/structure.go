package model

type Qualification struct {
	ID           string `gorm:"column:id;type:text;primaryKey"`
	BusinessID   string `gorm:"column:business_id;type:text;not null;uniqueIndex:ux_qualification_number"`
	Title        string `gorm:"column:title;type:text;not null"`
	Number       string `gorm:"column:number;type:text;not null;uniqueIndex:ux_qualification_number"`
	AwardingBody string `gorm:"column:awarding_body;type:text;not null;default:''"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt    string `gorm:"column:updated_at;type:text;not null"`

	Business *Business `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
}

func (Qualification) TableName() string {
	return "qualifications"
}

type Unit struct {
	ID              string  `gorm:"column:id;type:text;primaryKey"`
	QualificationID string  `gorm:"column:qualification_id;type:text;not null;uniqueIndex:ux_unit_number"`
	Title           string  `gorm:"column:title;type:text;not null"`
	Number          string  `gorm:"column:number;type:text;not null;uniqueIndex:ux_unit_number"`
	SerialNumber    float64 `gorm:"column:serial_number;not null;default:0"`
	CreatedAt       string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt       string  `gorm:"column:updated_at;type:text;not null"`

	Qualification *Qualification `gorm:"foreignKey:QualificationID;constraint:OnDelete:CASCADE"`
}

func (Unit) TableName() string {
	return "units"
}

type LearningOutcome struct {
	ID              string  `gorm:"column:id;type:text;primaryKey"`
	UnitID          string  `gorm:"column:unit_id;type:text;not null;uniqueIndex:ux_outcome_detail"`
	QualificationID string  `gorm:"column:qualification_id;type:text;not null;index"`
	Detail          string  `gorm:"column:detail;type:text;not null;uniqueIndex:ux_outcome_detail"`
	SerialNumber    float64 `gorm:"column:serial_number;not null;default:0"`
	CreatedAt       string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt       string  `gorm:"column:updated_at;type:text;not null"`

	Unit *Unit `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
}

func (LearningOutcome) TableName() string {
	return "learning_outcomes"
}

type AssessmentCriterion struct {
	ID                string  `gorm:"column:id;type:text;primaryKey"`
	LearningOutcomeID string  `gorm:"column:learning_outcome_id;type:text;not null;uniqueIndex:ux_criterion_detail"`
	UnitID            string  `gorm:"column:unit_id;type:text;not null;index"`
	QualificationID   string  `gorm:"column:qualification_id;type:text;not null;index"`
	Detail            string  `gorm:"column:detail;type:text;not null;uniqueIndex:ux_criterion_detail"`
	SerialNumber      float64 `gorm:"column:serial_number;not null;default:0"`
	CreatedAt         string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt         string  `gorm:"column:updated_at;type:text;not null"`

	LearningOutcome *LearningOutcome `gorm:"foreignKey:LearningOutcomeID;constraint:OnDelete:CASCADE"`
}

func (AssessmentCriterion) TableName() string {
	return "assessment_criteria"
}
