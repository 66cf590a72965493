package workflow

import (
	"sort"
	"strings"
)

type Role string

const (
	RoleLearner  Role = "LEARNER"
	RoleAssessor Role = "ASSESSOR"
	RoleIQA      Role = "IQA"
	RoleEQA      Role = "EQA"
	RoleAdmin    Role = "ADMIN"
)

// exclusiveRoles are qualification-scoped; a person holds at most one of them per qualification.
var exclusiveRoles = map[Role]struct{}{
	RoleLearner:  {},
	RoleAssessor: {},
	RoleIQA:      {},
	RoleEQA:      {},
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := exclusiveRoles[role]; ok || role == RoleAdmin {
		return role, nil
	}
	return "", Invalid("role", "must be one of LEARNER, ASSESSOR, IQA, EQA, ADMIN")
}

func (r Role) QualificationScoped() bool {
	_, ok := exclusiveRoles[r]
	return ok
}

type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

func (s RoleSet) Add(role Role) {
	s[role] = struct{}{}
}

// Sorted returns roles in a stable order for display and comparison.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for role := range s {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckAssignable returns a *RoleConflictError when held already contains any
// qualification-scoped role, including the requested one.
func CheckAssignable(held RoleSet, requested Role) error {
	if !requested.QualificationScoped() {
		return Invalid("role", "only LEARNER, ASSESSOR, IQA and EQA are assigned per qualification")
	}
	if held.Has(requested) {
		return &RoleConflictError{Existing: requested, Requested: requested}
	}
	for _, role := range held.Sorted() {
		if role.QualificationScoped() {
			return &RoleConflictError{Existing: role, Requested: requested}
		}
	}
	return nil
}
