package ports

import "context"

type Qualification struct {
	ID           string
	BusinessID   string
	Title        string
	Number       string
	AwardingBody string
	CreatedAt    string
	UpdatedAt    string
}

type Unit struct {
	ID              string
	QualificationID string
	Title           string
	Number          string
	SerialNumber    float64
	CreatedAt       string
	UpdatedAt       string
}

type LearningOutcome struct {
	ID              string
	UnitID          string
	QualificationID string
	Detail          string
	SerialNumber    float64
	CreatedAt       string
	UpdatedAt       string
}

type AssessmentCriterion struct {
	ID                string
	LearningOutcomeID string
	UnitID            string
	QualificationID   string
	Detail            string
	SerialNumber      float64
	CreatedAt         string
	UpdatedAt         string
}

type StructureRepository interface {
	CreateQualification(ctx context.Context, qualification Qualification) error
	GetQualification(ctx context.Context, qualificationID string) (Qualification, error)
	FindQualificationByNumber(ctx context.Context, businessID string, number string) (Qualification, error)
	ListQualifications(ctx context.Context, businessID string) ([]Qualification, error)

	CreateUnit(ctx context.Context, unit Unit) error
	GetUnit(ctx context.Context, unitID string) (Unit, error)
	FindUnitByNumber(ctx context.Context, qualificationID string, number string) (Unit, error)
	ListUnits(ctx context.Context, qualificationID string) ([]Unit, error)
	DeleteUnit(ctx context.Context, unitID string) error

	CreateLearningOutcome(ctx context.Context, outcome LearningOutcome) error
	GetLearningOutcome(ctx context.Context, outcomeID string) (LearningOutcome, error)
	ListLearningOutcomes(ctx context.Context, unitID string) ([]LearningOutcome, error)
	DeleteLearningOutcome(ctx context.Context, outcomeID string) error

	CreateCriterion(ctx context.Context, criterion AssessmentCriterion) error
	GetCriterion(ctx context.Context, criterionID string) (AssessmentCriterion, error)
	ListCriteriaByOutcome(ctx context.Context, outcomeID string) ([]AssessmentCriterion, error)
	ListCriteriaByUnit(ctx context.Context, unitID string) ([]AssessmentCriterion, error)
	ListCriteriaByQualification(ctx context.Context, qualificationID string) ([]AssessmentCriterion, error)
	DeleteCriterion(ctx context.Context, criterionID string) error

	// CountSubmissionsUnder counts evidence and workbook rows below the node.
	CountSubmissionsUnder(ctx context.Context, node StructureNode) (int64, error)
}

type StructureNodeKind string

const (
	NodeUnit            StructureNodeKind = "unit"
	NodeLearningOutcome StructureNodeKind = "learning_outcome"
	NodeCriterion       StructureNodeKind = "criterion"
)

type StructureNode struct {
	Kind StructureNodeKind
	ID   string
}
