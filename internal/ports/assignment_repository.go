package ports

import (
	"context"

	"assesseez/internal/domain/workflow"
)

type LearnerAssignment struct {
	ID                   string
	MembershipID         string
	QualificationID      string
	AssessorMembershipID string
	IQAMembershipID      string
	IsActive             bool
	DateOfBirth          string
	Disability           bool
	Address              string
	BatchNumber          string
	PhoneNumber          string
	DateOfRegistration   string
	Country              string
	Ethnicity            string
	SignedOff            bool
	CreatedAt            string
	UpdatedAt            string
}

// StaffAssignment is an Assessor, IQA or EQA assignment to a qualification.
type StaffAssignment struct {
	ID              string
	Role            workflow.Role
	MembershipID    string
	QualificationID string
	CreatedAt       string
}

type LearnerFilter struct {
	QualificationID      string
	AssessorMembershipID string
	IQAMembershipID      string
	ActiveOnly           bool
}

type AssignmentRepository interface {
	// LockMembership serializes assignment changes for one membership inside
	// the caller's transaction.
	LockMembership(ctx context.Context, membershipID string) error
	// HeldRoles returns the qualification-scoped roles a membership holds.
	HeldRoles(ctx context.Context, membershipID string, qualificationID string) (workflow.RoleSet, error)

	CreateLearner(ctx context.Context, learner LearnerAssignment) error
	UpdateLearner(ctx context.Context, learner LearnerAssignment) error
	GetLearner(ctx context.Context, learnerID string) (LearnerAssignment, error)
	FindLearner(ctx context.Context, membershipID string, qualificationID string) (LearnerAssignment, error)
	ListLearners(ctx context.Context, filter LearnerFilter) ([]LearnerAssignment, error)

	CreateStaff(ctx context.Context, staff StaffAssignment) error
	FindStaff(ctx context.Context, role workflow.Role, membershipID string, qualificationID string) (StaffAssignment, error)
	// ListStaff returns the qualification's staff assignments, all roles when role is empty.
	ListStaff(ctx context.Context, qualificationID string, role workflow.Role) ([]StaffAssignment, error)
	SetEQALearners(ctx context.Context, eqaAssignmentID string, learnerIDs []string) error
	ListEQALearners(ctx context.Context, eqaAssignmentID string) ([]string, error)

	// ShareLearner reports whether some learner has both memberships assigned as IQA and assessor.
	ShareLearner(ctx context.Context, iqaMembershipID string, assessorMembershipID string) (bool, error)
}
