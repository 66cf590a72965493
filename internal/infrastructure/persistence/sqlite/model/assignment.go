package model

type LearnerAssignment struct {
	ID                   string  `gorm:"column:id;type:text;primaryKey"`
	MembershipID         string  `gorm:"column:membership_id;type:text;not null;uniqueIndex:ux_learner_qualification"`
	QualificationID      string  `gorm:"column:qualification_id;type:text;not null;uniqueIndex:ux_learner_qualification;index"`
	AssessorMembershipID *string `gorm:"column:assessor_membership_id;type:text;index"`
	IQAMembershipID      *string `gorm:"column:iqa_membership_id;type:text;index"`
	IsActive             bool    `gorm:"column:is_active;not null"`
	DateOfBirth          string  `gorm:"column:date_of_birth;type:text;not null;default:''"`
	Disability           bool    `gorm:"column:disability;not null"`
	Address              string  `gorm:"column:address;type:text;not null;default:''"`
	BatchNumber          string  `gorm:"column:batch_number;type:text;not null;default:''"`
	PhoneNumber          string  `gorm:"column:phone_number;type:text;not null;default:''"`
	DateOfRegistration   string  `gorm:"column:date_of_registration;type:text;not null;default:''"`
	Country              string  `gorm:"column:country;type:text;not null;default:''"`
	Ethnicity            string  `gorm:"column:ethnicity;type:text;not null;default:''"`
	SignedOff            bool    `gorm:"column:signed_off;not null"`
	CreatedAt            string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt            string  `gorm:"column:updated_at;type:text;not null"`

	Membership    *Membership    `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE"`
	Qualification *Qualification `gorm:"foreignKey:QualificationID;constraint:OnDelete:CASCADE"`
	Assessor      *Membership    `gorm:"foreignKey:AssessorMembershipID;constraint:OnDelete:SET NULL"`
	IQA           *Membership    `gorm:"foreignKey:IQAMembershipID;constraint:OnDelete:SET NULL"`
}

func (LearnerAssignment) TableName() string {
	return "learner_assignments"
}

// StaffAssignment stores assessor, IQA and EQA assignments keyed by role.
type StaffAssignment struct {
	ID              string `gorm:"column:id;type:text;primaryKey"`
	Role            string `gorm:"column:role;type:text;not null;uniqueIndex:ux_staff_role"`
	MembershipID    string `gorm:"column:membership_id;type:text;not null;uniqueIndex:ux_staff_role"`
	QualificationID string `gorm:"column:qualification_id;type:text;not null;uniqueIndex:ux_staff_role;index"`
	CreatedAt       string `gorm:"column:created_at;type:text;not null"`

	Membership    *Membership    `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE"`
	Qualification *Qualification `gorm:"foreignKey:QualificationID;constraint:OnDelete:CASCADE"`
}

func (StaffAssignment) TableName() string {
	return "staff_assignments"
}

type EQALearner struct {
	EQAAssignmentID string `gorm:"column:eqa_assignment_id;type:text;primaryKey"`
	LearnerID       string `gorm:"column:learner_id;type:text;primaryKey"`

	EQAAssignment *StaffAssignment   `gorm:"foreignKey:EQAAssignmentID;constraint:OnDelete:CASCADE"`
	Learner       *LearnerAssignment `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE"`
}

func (EQALearner) TableName() string {
	return "eqa_learners"
}
