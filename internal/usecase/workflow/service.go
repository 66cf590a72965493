package workflow

import (
	"time"

	"github.com/google/uuid"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

// Dependencies groups the ports the workflow service needs.
type Dependencies struct {
	Directory     ports.DirectoryRepository
	Structure     ports.StructureRepository
	Assignments   ports.AssignmentRepository
	Evidence      ports.EvidenceRepository
	Documents     ports.DocumentRepository
	Sampling      ports.SamplingRepository
	Notifications ports.NotificationRepository
	Resources     ports.ResourceRepository
	Messages      ports.MessageRepository
	UoW           ports.UnitOfWork
	Notifier      ports.Notifier
	FilePolicy    domain.FilePolicy
}

type Service struct {
	directory     ports.DirectoryRepository
	structure     ports.StructureRepository
	assignments   ports.AssignmentRepository
	evidence      ports.EvidenceRepository
	documents     ports.DocumentRepository
	sampling      ports.SamplingRepository
	notifications ports.NotificationRepository
	resources     ports.ResourceRepository
	messages      ports.MessageRepository
	uow           ports.UnitOfWork
	notifier      ports.Notifier
	files         domain.FilePolicy
	now           func() time.Time
	newID         func() string
}

// NewService wires the qualification workflow usecases.
func NewService(deps Dependencies) *Service {
	policy := deps.FilePolicy
	if policy.MaxBytes <= 0 && len(policy.AllowedExtensions) == 0 {
		policy = domain.DefaultFilePolicy()
	}
	return &Service{
		directory:     deps.Directory,
		structure:     deps.Structure,
		assignments:   deps.Assignments,
		evidence:      deps.Evidence,
		documents:     deps.Documents,
		sampling:      deps.Sampling,
		notifications: deps.Notifications,
		resources:     deps.Resources,
		messages:      deps.Messages,
		uow:           deps.UoW,
		notifier:      deps.Notifier,
		files:         policy,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Result is returned by every mutating operation.
type Result struct {
	ID       string
	Warnings []string
}

type CreateBusinessInput struct {
	Name       string
	Address    string
	AdminEmail string
	AdminName  string
}

type CreateBusinessResult struct {
	BusinessID   string
	AdminPerson  string
	MembershipID string
}

type AddMemberInput struct {
	Email    string
	FullName string
	Admin    bool
}

type AddMemberResult struct {
	PersonID     string
	MembershipID string
}

type LearnerDetails struct {
	DateOfBirth        string
	Disability         bool
	Address            string
	BatchNumber        string
	PhoneNumber        string
	DateOfRegistration string
	Country            string
	Ethnicity          string
}

type AssignRoleInput struct {
	PersonID         string
	Role             string
	AssessorPersonID string
	IQAPersonID      string
	Learner          LearnerDetails
}

type UpdateLearnerInput struct {
	LearnerID        string
	AssessorPersonID *string
	IQAPersonID      *string
	IsActive         *bool
	SignedOff        *bool
	Details          *LearnerDetails
}

type CreateQualificationInput struct {
	Title        string
	Number       string
	AwardingBody string
}

type AddUnitInput struct {
	Title        string
	Number       string
	SerialNumber float64
}

type AddLearningOutcomeInput struct {
	UnitID       string
	Detail       string
	SerialNumber float64
}

type AddCriterionInput struct {
	LearningOutcomeID string
	Detail            string
	SerialNumber      float64
}

type QualificationTree struct {
	Qualification ports.Qualification
	Units         []UnitNode
}

type UnitNode struct {
	Unit     ports.Unit
	Outcomes []OutcomeNode
}

type OutcomeNode struct {
	Outcome  ports.LearningOutcome
	Criteria []ports.AssessmentCriterion
}

type SubmitEvidenceInput struct {
	CriterionID string
	Detail      string
	Files       []domain.FileRef
}

type SubmitResult struct {
	SubmissionID string
	Created      bool
	Warnings     []string
}

type Decision struct {
	SubmissionID string
	Status       string
	Feedback     string
}

type DecisionOutcome struct {
	SubmissionID string
	Status       domain.EvidenceStatus
	Applied      bool
}

type DecideResult struct {
	Outcomes []DecisionOutcome
	Warnings []string
}

type EvidenceEntry struct {
	Submission ports.EvidenceSubmission
	Label      string
	Feedback   []ports.Feedback
}

type SubmitWorkbookInput struct {
	LearningOutcomeID string
	Detail            string
	File              *domain.FileRef
}

type AddRequirementInput struct {
	Title       string
	Description string
	Template    *domain.FileRef
}

type SubmitDocumentInput struct {
	RequirementID string
	File          domain.FileRef
	Comments      string
}

type DecideDocumentInput struct {
	SubmissionID string
	Status       string
	Comments     string
}

type RemarkDocumentInput struct {
	SubmissionID string
	Remark       string
	Comments     string
}

type DocumentEntry struct {
	Requirement ports.DocumentRequirement
	Submission  *ports.DocumentSubmission
	Status      domain.DocumentStatus
	Remarks     []ports.DocumentRemark
}

type SampleTarget struct {
	LearnerID string
	UnitID    string
}

type RecordSamplingInput struct {
	LearnerID    string
	UnitID       string
	SamplingType string
	Outcome      string
	Comments     string
}

type SamplingResult struct {
	SamplingID    string
	IQAFeedbackID string
	Warnings      []string
}

type AssessorFeedbackInput struct {
	AssessorPersonID string
	SamplingType     string
	Date             string
	Comments         string
}

type LearnerProgress struct {
	LearnerID     string
	Name          string
	Email         string
	Completion    float64
	SamplingRatio float64
	IsActive      bool
	SignedOff     bool
}

type ResourceFolderInput struct {
	Name             string
	VisibleTo        []string
	QualificationIDs []string
}

type AddResourceFileInput struct {
	FolderID string
	Title    string
	File     domain.FileRef
}

type LearnerFileInput struct {
	LearnerID   string
	Title       string
	Description string
	File        domain.FileRef
}

type UpdateLearnerFileInput struct {
	FileID      string
	Title       string
	Description string
	File        *domain.FileRef
}

type ComposeMessageInput struct {
	RecipientPersonIDs []string
	Subject            string
	Body               string
	Attachment         *domain.FileRef
}

// ThreadSummary is one subject in an inbox or sent list.
type ThreadSummary struct {
	Subject    string
	Latest     ports.Message
	Unread     int
	MessageIDs []string
}
