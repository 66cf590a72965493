package workflow

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

// caller is the resolved identity behind a RequestContext.
type caller struct {
	req           domain.RequestContext
	member        ports.Member
	qualification ports.Qualification
}

func (c caller) isAdmin() bool {
	return c.member.Type == domain.MembershipAdmin
}

func (s *Service) resolveCaller(ctx context.Context, req domain.RequestContext, withQualification bool) (context.Context, caller, error) {
	if err := checkContext(ctx); err != nil {
		return ctx, caller{}, err
	}
	if err := s.checkReady(); err != nil {
		return ctx, caller{}, err
	}

	req = req.Normalize()
	if withQualification {
		if err := req.ValidateQualification(); err != nil {
			return ctx, caller{}, err
		}
	} else if err := req.ValidateBusiness(); err != nil {
		return ctx, caller{}, err
	}
	ctx = logging.WithRequest(ctx, req.PersonID, req.BusinessID, req.QualificationID)

	member, err := s.directory.GetMember(ctx, req.PersonID, req.BusinessID)
	if err != nil {
		if isNotFound(err) {
			return ctx, caller{}, domain.NotAssigned("person is not a member of this business")
		}
		return ctx, caller{}, storage(err, "load membership")
	}

	c := caller{req: req, member: member}
	if !withQualification {
		return ctx, c, nil
	}

	qualification, err := s.structure.GetQualification(ctx, req.QualificationID)
	if err != nil {
		return ctx, caller{}, lookup(err, "qualification")
	}
	if qualification.BusinessID != req.BusinessID {
		return ctx, caller{}, domain.NotFound("qualification")
	}
	c.qualification = qualification
	return ctx, c, nil
}

func requireAdmin(c caller) error {
	if !c.isAdmin() {
		return domain.NotAssigned("business admin role required")
	}
	return nil
}

// ResolveRoles returns every role the caller holds: ADMIN from the business
// membership plus the qualification-scoped role when a qualification is given.
func (s *Service) ResolveRoles(ctx context.Context, req domain.RequestContext) (domain.RoleSet, error) {
	withQualification := strings.TrimSpace(req.QualificationID) != ""
	ctx, c, err := s.resolveCaller(ctx, req, withQualification)
	if err != nil {
		return nil, err
	}

	roles := domain.NewRoleSet()
	if withQualification {
		held, err := s.assignments.HeldRoles(ctx, c.member.ID, c.qualification.ID)
		if err != nil {
			return nil, storage(err, "load held roles")
		}
		roles = held
	}
	if c.isAdmin() {
		roles.Add(domain.RoleAdmin)
	}
	return roles, nil
}

func (s *Service) CreateBusiness(ctx context.Context, input CreateBusinessInput) (CreateBusinessResult, error) {
	if err := checkContext(ctx); err != nil {
		return CreateBusinessResult{}, err
	}
	if err := s.checkReady(); err != nil {
		return CreateBusinessResult{}, err
	}

	name, err := domain.RequireText("name", input.Name, domain.MaxTitleLength)
	if err != nil {
		return CreateBusinessResult{}, err
	}
	email, err := domain.RequireText("admin_email", input.AdminEmail, 254)
	if err != nil {
		return CreateBusinessResult{}, err
	}

	var out CreateBusinessResult
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		now := s.stamp()
		out.BusinessID = s.newID()
		if err := s.directory.CreateBusiness(txCtx, ports.Business{
			ID:        out.BusinessID,
			Name:      name,
			Address:   strings.TrimSpace(input.Address),
			CreatedAt: now,
		}); err != nil {
			return storage(err, "create business")
		}

		person, err := s.ensurePerson(txCtx, email, input.AdminName)
		if err != nil {
			return err
		}
		out.AdminPerson = person.ID
		out.MembershipID = s.newID()
		return storage(s.directory.CreateMembership(txCtx, ports.Membership{
			ID:         out.MembershipID,
			PersonID:   person.ID,
			BusinessID: out.BusinessID,
			Type:       domain.MembershipAdmin,
			CreatedAt:  now,
		}), "create admin membership")
	}); err != nil {
		return CreateBusinessResult{}, err
	}

	logging.Info(ctx, "business created", slog.String("business_id", out.BusinessID))
	return out, nil
}

func (s *Service) AddMember(ctx context.Context, req domain.RequestContext, input AddMemberInput) (AddMemberResult, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return AddMemberResult{}, err
	}
	if err := requireAdmin(c); err != nil {
		return AddMemberResult{}, err
	}
	email, err := domain.RequireText("email", input.Email, 254)
	if err != nil {
		return AddMemberResult{}, err
	}

	membershipType := domain.MembershipUser
	if input.Admin {
		membershipType = domain.MembershipAdmin
	}

	var out AddMemberResult
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		person, err := s.ensurePerson(txCtx, email, input.FullName)
		if err != nil {
			return err
		}
		out.PersonID = person.ID
		out.MembershipID = s.newID()
		err = s.directory.CreateMembership(txCtx, ports.Membership{
			ID:         out.MembershipID,
			PersonID:   person.ID,
			BusinessID: c.req.BusinessID,
			Type:       membershipType,
			CreatedAt:  s.stamp(),
		})
		if errors.Is(err, ports.ErrDuplicate) {
			return domain.Invalid("email", "person is already a member of this business")
		}
		return storage(err, "create membership")
	}); err != nil {
		return AddMemberResult{}, err
	}
	return out, nil
}

func (s *Service) ensurePerson(ctx context.Context, email string, fullName string) (ports.Person, error) {
	person, err := s.directory.GetPersonByEmail(ctx, email)
	if err == nil {
		return person, nil
	}
	if !isNotFound(err) {
		return ports.Person{}, storage(err, "load person")
	}
	person = ports.Person{
		ID:        s.newID(),
		Email:     strings.ToLower(email),
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: s.stamp(),
	}
	if err := s.directory.CreatePerson(ctx, person); err != nil {
		return ports.Person{}, storage(err, "create person")
	}
	return person, nil
}

// AssignRole attaches a qualification-scoped role to a business member. The
// exclusivity check and the insert share one transaction that holds a lock on
// the target membership.
func (s *Service) AssignRole(ctx context.Context, req domain.RequestContext, input AssignRoleInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return Result{}, err
	}
	if !role.QualificationScoped() {
		return Result{}, domain.Invalid("role", "ADMIN is granted through business membership")
	}

	target, err := s.memberOf(ctx, c, input.PersonID)
	if err != nil {
		return Result{}, err
	}

	var learner ports.LearnerAssignment
	if role == domain.RoleLearner {
		if err := s.validateLearnerDetails(input.Learner); err != nil {
			return Result{}, err
		}
		assessorID, err := s.staffMembership(ctx, c, domain.RoleAssessor, input.AssessorPersonID)
		if err != nil {
			return Result{}, err
		}
		iqaID, err := s.staffMembership(ctx, c, domain.RoleIQA, input.IQAPersonID)
		if err != nil {
			return Result{}, err
		}
		learner = ports.LearnerAssignment{
			AssessorMembershipID: assessorID,
			IQAMembershipID:      iqaID,
			IsActive:             true,
		}
		applyLearnerDetails(&learner, input.Learner)
	}

	id := s.newID()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.assignments.LockMembership(txCtx, target.ID); err != nil {
			return lookup(err, "member")
		}
		held, err := s.assignments.HeldRoles(txCtx, target.ID, c.qualification.ID)
		if err != nil {
			return storage(err, "load held roles")
		}
		if err := domain.CheckAssignable(held, role); err != nil {
			return err
		}

		now := s.stamp()
		if role == domain.RoleLearner {
			learner.ID = id
			learner.MembershipID = target.ID
			learner.QualificationID = c.qualification.ID
			learner.CreatedAt = now
			learner.UpdatedAt = now
			err = s.assignments.CreateLearner(txCtx, learner)
		} else {
			err = s.assignments.CreateStaff(txCtx, ports.StaffAssignment{
				ID:              id,
				Role:            role,
				MembershipID:    target.ID,
				QualificationID: c.qualification.ID,
				CreatedAt:       now,
			})
		}
		if errors.Is(err, ports.ErrDuplicate) {
			return &domain.RoleConflictError{Existing: role, Requested: role}
		}
		return storage(err, "create assignment")
	}); err != nil {
		return Result{}, err
	}

	logging.Info(ctx, "role assigned", slog.String("role", string(role)), slog.String("membership_id", target.ID))
	return Result{ID: id}, nil
}

// UpdateLearner changes reviewer links, activity and demographics of a learner assignment.
func (s *Service) UpdateLearner(ctx context.Context, req domain.RequestContext, input UpdateLearnerInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	learner, err := s.loadLearner(ctx, c, input.LearnerID)
	if err != nil {
		return Result{}, err
	}
	if input.AssessorPersonID != nil {
		id, err := s.staffMembership(ctx, c, domain.RoleAssessor, *input.AssessorPersonID)
		if err != nil {
			return Result{}, err
		}
		learner.AssessorMembershipID = id
	}
	if input.IQAPersonID != nil {
		id, err := s.staffMembership(ctx, c, domain.RoleIQA, *input.IQAPersonID)
		if err != nil {
			return Result{}, err
		}
		learner.IQAMembershipID = id
	}
	if input.IsActive != nil {
		learner.IsActive = *input.IsActive
	}
	if input.SignedOff != nil {
		learner.SignedOff = *input.SignedOff
	}
	if input.Details != nil {
		if err := s.validateLearnerDetails(*input.Details); err != nil {
			return Result{}, err
		}
		applyLearnerDetails(&learner, *input.Details)
	}
	learner.UpdatedAt = s.stamp()

	if err := s.assignments.UpdateLearner(ctx, learner); err != nil {
		return Result{}, lookup(err, "learner")
	}
	return Result{ID: learner.ID}, nil
}

// SetEQALearners replaces the learners an EQA may review.
func (s *Service) SetEQALearners(ctx context.Context, req domain.RequestContext, eqaPersonID string, learnerIDs []string) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	target, err := s.memberOf(ctx, c, eqaPersonID)
	if err != nil {
		return Result{}, err
	}
	eqa, err := s.assignments.FindStaff(ctx, domain.RoleEQA, target.ID, c.qualification.ID)
	if err != nil {
		return Result{}, lookup(err, "EQA assignment")
	}

	ids := trimAll(learnerIDs)
	for _, id := range ids {
		learner, err := s.assignments.GetLearner(ctx, id)
		if err != nil || learner.QualificationID != c.qualification.ID {
			return Result{}, domain.Invalid("learners", "learner "+id+" is not on this qualification")
		}
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return storage(s.assignments.SetEQALearners(txCtx, eqa.ID, ids), "set eqa learners")
	}); err != nil {
		return Result{}, err
	}
	return Result{ID: eqa.ID}, nil
}

func (s *Service) memberOf(ctx context.Context, c caller, personID string) (ports.Member, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return ports.Member{}, domain.Invalid("person", "person is required")
	}
	member, err := s.directory.GetMember(ctx, personID, c.req.BusinessID)
	if err != nil {
		return ports.Member{}, lookup(err, "member")
	}
	return member, nil
}

// staffMembership resolves personID to a membership holding role on the caller's qualification.
func (s *Service) staffMembership(ctx context.Context, c caller, role domain.Role, personID string) (string, error) {
	if strings.TrimSpace(personID) == "" {
		return "", nil
	}
	member, err := s.memberOf(ctx, c, personID)
	if err != nil {
		return "", err
	}
	if _, err := s.assignments.FindStaff(ctx, role, member.ID, c.qualification.ID); err != nil {
		if isNotFound(err) {
			return "", domain.Invalid(strings.ToLower(string(role)), "person is not "+string(role)+" on this qualification")
		}
		return "", storage(err, "load staff assignment")
	}
	return member.ID, nil
}

func (s *Service) validateLearnerDetails(details LearnerDetails) error {
	if err := domain.ValidatePhone(details.PhoneNumber); err != nil {
		return err
	}
	if dob := strings.TrimSpace(details.DateOfBirth); dob != "" {
		if _, err := time.Parse(time.DateOnly, dob); err != nil {
			return domain.Invalid("date_of_birth", "must be YYYY-MM-DD")
		}
	}
	if reg := strings.TrimSpace(details.DateOfRegistration); reg != "" {
		registered, err := time.Parse(time.DateOnly, reg)
		if err != nil {
			return domain.Invalid("date_of_registration", "must be YYYY-MM-DD")
		}
		if err := domain.ValidateRegistrationDate(registered, s.now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

func applyLearnerDetails(learner *ports.LearnerAssignment, details LearnerDetails) {
	learner.DateOfBirth = strings.TrimSpace(details.DateOfBirth)
	learner.Disability = details.Disability
	learner.Address = strings.TrimSpace(details.Address)
	learner.BatchNumber = strings.TrimSpace(details.BatchNumber)
	learner.PhoneNumber = strings.TrimSpace(details.PhoneNumber)
	learner.DateOfRegistration = strings.TrimSpace(details.DateOfRegistration)
	learner.Country = strings.TrimSpace(details.Country)
	learner.Ethnicity = strings.TrimSpace(details.Ethnicity)
}

// learnerSelf returns the caller's own learner assignment.
func (s *Service) learnerSelf(ctx context.Context, c caller) (ports.LearnerAssignment, error) {
	learner, err := s.assignments.FindLearner(ctx, c.member.ID, c.qualification.ID)
	if err != nil {
		if isNotFound(err) {
			return ports.LearnerAssignment{}, domain.NotAssigned("caller is not a learner on this qualification")
		}
		return ports.LearnerAssignment{}, storage(err, "load learner assignment")
	}
	if !learner.IsActive {
		return ports.LearnerAssignment{}, domain.NotAssigned("learner is not active")
	}
	return learner, nil
}

func (s *Service) loadLearner(ctx context.Context, c caller, learnerID string) (ports.LearnerAssignment, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return ports.LearnerAssignment{}, domain.Invalid("learner", "learner is required")
	}
	learner, err := s.assignments.GetLearner(ctx, learnerID)
	if err != nil {
		return ports.LearnerAssignment{}, lookup(err, "learner")
	}
	if learner.QualificationID != c.qualification.ID {
		return ports.LearnerAssignment{}, domain.NotFound("learner")
	}
	return learner, nil
}

// canView allows the learner, their reviewers, an EQA holding them and business admins.
func (s *Service) canView(ctx context.Context, c caller, learner ports.LearnerAssignment) error {
	switch c.member.ID {
	case learner.MembershipID, learner.AssessorMembershipID, learner.IQAMembershipID:
		return nil
	}
	if c.isAdmin() {
		return nil
	}
	eqa, err := s.assignments.FindStaff(ctx, domain.RoleEQA, c.member.ID, c.qualification.ID)
	if err == nil {
		ids, err := s.assignments.ListEQALearners(ctx, eqa.ID)
		if err != nil {
			return storage(err, "load eqa learners")
		}
		if slices.Contains(ids, learner.ID) {
			return nil
		}
	} else if !isNotFound(err) {
		return storage(err, "load eqa assignment")
	}
	return domain.NotAssigned("caller cannot view this learner")
}

func (s *Service) requireAssessorOf(c caller, learner ports.LearnerAssignment) error {
	if learner.AssessorMembershipID == "" || learner.AssessorMembershipID != c.member.ID {
		return domain.NotAssigned("caller is not the learner's assessor")
	}
	return nil
}

func (s *Service) requireIQAOf(c caller, learner ports.LearnerAssignment) error {
	if learner.IQAMembershipID == "" || learner.IQAMembershipID != c.member.ID {
		return domain.NotAssigned("caller is not the learner's IQA")
	}
	return nil
}

// submissionRecipient is the learner's assessor, else the first business admin.
func (s *Service) submissionRecipient(ctx context.Context, learner ports.LearnerAssignment, businessID string) (ports.Member, bool, error) {
	if learner.AssessorMembershipID != "" {
		member, err := s.directory.GetMemberByID(ctx, learner.AssessorMembershipID)
		if err == nil {
			return member, true, nil
		}
		if !isNotFound(err) {
			return ports.Member{}, false, storage(err, "load assessor")
		}
	}
	admins, err := s.directory.ListAdmins(ctx, businessID)
	if err != nil {
		return ports.Member{}, false, storage(err, "load business admins")
	}
	if len(admins) == 0 {
		return ports.Member{}, false, nil
	}
	return admins[0], true, nil
}

func (s *Service) memberName(ctx context.Context, membershipID string) string {
	member, err := s.directory.GetMemberByID(ctx, membershipID)
	if err != nil {
		if !isNotFound(err) {
			logging.Warn(ctx, "load member name failed", slog.Any("err", errs.Loggable(err)))
		}
		return membershipID
	}
	return member.DisplayName()
}
