package ports

import (
	"context"

	"assesseez/internal/domain/workflow"
)

type FileRecord struct {
	ID           string
	SubmissionID string
	Name         string
	StorageKey   string
	SizeBytes    int64
	CreatedAt    string
}

type EvidenceSubmission struct {
	ID                   string
	LearnerID            string
	CriterionID          string
	Detail               string
	Status               workflow.EvidenceStatus
	AssessorMembershipID string
	SubmittedAt          string
	UpdatedAt            string
	Files                []FileRecord
}

type Feedback struct {
	ID                   string
	SubmissionID         string
	AssessorMembershipID string
	Text                 string
	CreatedAt            string
}

// WorkbookSubmission is the learning-outcome scoped counterpart of evidence; one file per row.
type WorkbookSubmission struct {
	ID                   string
	LearnerID            string
	LearningOutcomeID    string
	Detail               string
	Status               workflow.EvidenceStatus
	AssessorMembershipID string
	File                 workflow.FileRef
	SubmittedAt          string
	UpdatedAt            string
}

type EvidenceRepository interface {
	// LatestEvidence returns the most recently submitted row for the pair, or ErrRecordNotFound.
	LatestEvidence(ctx context.Context, learnerID string, criterionID string) (EvidenceSubmission, error)
	GetEvidence(ctx context.Context, submissionID string) (EvidenceSubmission, error)
	CreateEvidence(ctx context.Context, submission EvidenceSubmission) error
	// UpdatePendingEvidence rewrites detail (and files when non-nil) of a SUBMITTED row.
	UpdatePendingEvidence(ctx context.Context, submissionID string, detail string, files []FileRecord, updatedAt string) error
	// DecideEvidence moves a SUBMITTED row to status; applied is false when the row already left SUBMITTED.
	DecideEvidence(ctx context.Context, submissionID string, status workflow.EvidenceStatus, assessorMembershipID string, updatedAt string) (applied bool, err error)
	ListEvidenceHistory(ctx context.Context, learnerID string, criterionID string) ([]EvidenceSubmission, error)
	// LatestStatuses maps criterion id to the status of the latest row for each criterion given.
	LatestStatuses(ctx context.Context, learnerID string, criterionIDs []string) (map[string]workflow.EvidenceStatus, error)
	// LatestEvidenceInUnit returns the most recently submitted evidence for any criterion of the unit.
	LatestEvidenceInUnit(ctx context.Context, learnerID string, unitID string) (EvidenceSubmission, error)

	CreateFeedback(ctx context.Context, feedback Feedback) error
	ListFeedback(ctx context.Context, submissionID string) ([]Feedback, error)

	LatestWorkbook(ctx context.Context, learnerID string, outcomeID string) (WorkbookSubmission, error)
	GetWorkbook(ctx context.Context, submissionID string) (WorkbookSubmission, error)
	CreateWorkbook(ctx context.Context, submission WorkbookSubmission) error
	UpdatePendingWorkbook(ctx context.Context, submissionID string, detail string, file *workflow.FileRef, updatedAt string) error
	DecideWorkbook(ctx context.Context, submissionID string, status workflow.EvidenceStatus, assessorMembershipID string, updatedAt string) (applied bool, err error)
	ListWorkbookHistory(ctx context.Context, learnerID string, outcomeID string) ([]WorkbookSubmission, error)
}
