package ports

import (
	"context"

	"assesseez/internal/domain/workflow"
)

type Business struct {
	ID        string
	Name      string
	Address   string
	CreatedAt string
}

type Person struct {
	ID        string
	Email     string
	FullName  string
	CreatedAt string
}

// Membership is a person inside one business; role assignments hang off it.
type Membership struct {
	ID         string
	PersonID   string
	BusinessID string
	Type       workflow.MembershipType
	CreatedAt  string
}

// Member is a membership joined with the person's contact details.
type Member struct {
	Membership
	Email    string
	FullName string
}

// DisplayName falls back to the email address when no full name is stored.
func (m Member) DisplayName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Email
}

type DirectoryRepository interface {
	CreateBusiness(ctx context.Context, business Business) error
	GetBusiness(ctx context.Context, businessID string) (Business, error)
	CreatePerson(ctx context.Context, person Person) error
	GetPerson(ctx context.Context, personID string) (Person, error)
	GetPersonByEmail(ctx context.Context, email string) (Person, error)
	CreateMembership(ctx context.Context, membership Membership) error
	GetMember(ctx context.Context, personID string, businessID string) (Member, error)
	GetMemberByID(ctx context.Context, membershipID string) (Member, error)
	ListAdmins(ctx context.Context, businessID string) ([]Member, error)
}
