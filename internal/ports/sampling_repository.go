package ports

import (
	"context"

	"assesseez/internal/domain/workflow"
)

type Sampling struct {
	ID              string
	IQAMembershipID string
	LearnerID       string
	UnitID          string
	EvidenceID      string
	SamplingType    workflow.SamplingType
	Outcome         workflow.Outcome
	Comments        string
	CreatedAt       string
}

// IQAFeedback addresses a sampling outcome to the assessor under review.
type IQAFeedback struct {
	ID                   string
	SamplingID           string
	AssessorMembershipID string
	Feedback             string
	CreatedAt            string
}

// AssessorFeedback is the IQA to assessor channel that is not tied to a sampling event.
type AssessorFeedback struct {
	ID                   string
	IQAMembershipID      string
	AssessorMembershipID string
	QualificationID      string
	SamplingType         workflow.SamplingType
	Date                 string
	Comments             string
	CreatedAt            string
}

type SamplingFilter struct {
	LearnerID       string
	UnitID          string
	IQAMembershipID string
}

type SamplingRepository interface {
	CreateSampling(ctx context.Context, sampling Sampling) error
	ListSamplings(ctx context.Context, filter SamplingFilter) ([]Sampling, error)
	// CountSampledUnits counts distinct units the IQA has sampled for the learner.
	CountSampledUnits(ctx context.Context, iqaMembershipID string, learnerID string) (int, error)

	CreateIQAFeedback(ctx context.Context, feedback IQAFeedback) error
	ListIQAFeedback(ctx context.Context, assessorMembershipID string) ([]IQAFeedback, error)

	CreateAssessorFeedback(ctx context.Context, feedback AssessorFeedback) error
	ListAssessorFeedback(ctx context.Context, assessorMembershipID string, iqaMembershipID string) ([]AssessorFeedback, error)
}
