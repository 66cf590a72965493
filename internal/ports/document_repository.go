package ports

import (
	"context"

	"assesseez/internal/domain/workflow"
)

type DocumentRequirement struct {
	ID              string
	QualificationID string
	Title           string
	Description     string
	Template        *workflow.FileRef
	CreatedAt       string
}

type DocumentSubmission struct {
	ID                   string
	LearnerID            string
	RequirementID        string
	File                 workflow.FileRef
	Status               workflow.DocumentStatus
	Comments             string
	AssessorMembershipID string
	SubmittedAt          string
	UpdatedAt            string
}

type DocumentRemark struct {
	ID              string
	SubmissionID    string
	IQAMembershipID string
	Remark          workflow.Outcome
	Comments        string
	CreatedAt       string
}

// LearnerFile is a document a reviewer or admin uploaded on a learner's behalf.
type LearnerFile struct {
	ID                     string
	LearnerID              string
	Title                  string
	Description            string
	File                   workflow.FileRef
	UploadedByMembershipID string
	UploadedAt             string
	UpdatedAt              string
}

type DocumentRepository interface {
	CreateRequirement(ctx context.Context, requirement DocumentRequirement) error
	GetRequirement(ctx context.Context, requirementID string) (DocumentRequirement, error)
	ListRequirements(ctx context.Context, qualificationID string) ([]DocumentRequirement, error)

	FindSubmission(ctx context.Context, learnerID string, requirementID string) (DocumentSubmission, error)
	GetSubmission(ctx context.Context, submissionID string) (DocumentSubmission, error)
	// CreateSubmission returns ErrDuplicate when the (learner, requirement) row already exists.
	CreateSubmission(ctx context.Context, submission DocumentSubmission) error
	// UpdateSubmission writes the row only while its stored status is still
	// expected and reports whether it did.
	UpdateSubmission(ctx context.Context, submission DocumentSubmission, expected workflow.DocumentStatus) (bool, error)
	ListSubmissions(ctx context.Context, learnerID string) ([]DocumentSubmission, error)

	// ReplaceRemark deletes any remark by the same IQA on the submission before inserting.
	ReplaceRemark(ctx context.Context, remark DocumentRemark) error
	ListRemarks(ctx context.Context, submissionID string) ([]DocumentRemark, error)

	CreateLearnerFile(ctx context.Context, file LearnerFile) error
	GetLearnerFile(ctx context.Context, fileID string) (LearnerFile, error)
	UpdateLearnerFile(ctx context.Context, file LearnerFile) error
	DeleteLearnerFile(ctx context.Context, fileID string) error
	ListLearnerFiles(ctx context.Context, learnerID string) ([]LearnerFile, error)
}
