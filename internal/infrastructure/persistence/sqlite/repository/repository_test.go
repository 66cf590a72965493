package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "assesseez.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn+"?_pragma=foreign_keys(1)"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func stamp(second int) string {
	return fmt.Sprintf("2026-03-01T10:00:%02d.000000000Z", second)
}

func insertRows(t *testing.T, db *gorm.DB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("insert %T: %v", row, err)
		}
	}
}

// seedMembers inserts business b-1, qualification q-1 and a membership
// m-<name> for each staff name used below.
func seedMembers(t *testing.T, db *gorm.DB) {
	t.Helper()
	insertRows(t, db,
		&model.Business{ID: "b-1", Name: "Acme Training", CreatedAt: stamp(0)},
		&model.Qualification{ID: "q-1", BusinessID: "b-1", Title: "Diploma", Number: "600/1", CreatedAt: stamp(0), UpdatedAt: stamp(0)},
	)
	for _, name := range []string{"learner", "second", "assessor", "iqa", "eqa"} {
		insertRows(t, db,
			&model.Person{ID: "p-" + name, Email: name + "@example.com", CreatedAt: stamp(0)},
			&model.Membership{ID: "m-" + name, PersonID: "p-" + name, BusinessID: "b-1", Type: string(workflow.MembershipUser), CreatedAt: stamp(0)},
		)
	}
}

// seedLearner adds learner assignment l-1 on q-1 for m-learner.
func seedLearner(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedMembers(t, db)
	insertRows(t, db, &model.LearnerAssignment{
		ID: "l-1", MembershipID: "m-learner", QualificationID: "q-1", IsActive: true,
		CreatedAt: stamp(0), UpdatedAt: stamp(0),
	})
}

// seedCriteria builds unit-1 > lo-1 > ac-1..ac-n under q-1 with learner l-1 in place.
func seedCriteria(t *testing.T, db *gorm.DB, n int) (ports.Unit, []ports.AssessmentCriterion) {
	t.Helper()
	seedLearner(t, db)
	repo := NewStructureRepository(db)
	ctx := context.Background()

	unit := ports.Unit{ID: "unit-1", QualificationID: "q-1", Title: "Unit 1", Number: "U1", SerialNumber: 1, CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	if err := repo.CreateUnit(ctx, unit); err != nil {
		t.Fatalf("CreateUnit() error = %v", err)
	}
	outcome := ports.LearningOutcome{ID: "lo-1", UnitID: unit.ID, QualificationID: "q-1", Detail: "LO 1.1", SerialNumber: 1.1, CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	if err := repo.CreateLearningOutcome(ctx, outcome); err != nil {
		t.Fatalf("CreateLearningOutcome() error = %v", err)
	}

	criteria := make([]ports.AssessmentCriterion, 0, n)
	for i := 1; i <= n; i++ {
		criterion := ports.AssessmentCriterion{
			ID:                fmt.Sprintf("ac-%d", i),
			LearningOutcomeID: outcome.ID,
			UnitID:            unit.ID,
			QualificationID:   "q-1",
			Detail:            fmt.Sprintf("AC 1.1.%d", i),
			SerialNumber:      float64(n - i),
			CreatedAt:         stamp(0),
			UpdatedAt:         stamp(0),
		}
		if err := repo.CreateCriterion(ctx, criterion); err != nil {
			t.Fatalf("CreateCriterion() error = %v", err)
		}
		criteria = append(criteria, criterion)
	}
	return unit, criteria
}

func TestStructureOrderingAndDeleteGuards(t *testing.T) {
	db := setupDB(t)
	structure := NewStructureRepository(db)
	evidence := NewEvidenceRepository(db)
	ctx := context.Background()

	unit, _ := seedCriteria(t, db, 3)

	criteria, err := structure.ListCriteriaByUnit(ctx, unit.ID)
	if err != nil {
		t.Fatalf("ListCriteriaByUnit() error = %v", err)
	}
	if len(criteria) != 3 || criteria[0].ID != "ac-3" {
		t.Fatalf("ListCriteriaByUnit() order = %+v", criteria)
	}

	count, err := structure.CountSubmissionsUnder(ctx, ports.StructureNode{Kind: ports.NodeUnit, ID: unit.ID})
	if err != nil || count != 0 {
		t.Fatalf("CountSubmissionsUnder() = %d, %v", count, err)
	}

	if err := evidence.CreateEvidence(ctx, ports.EvidenceSubmission{
		ID: "ev-1", LearnerID: "l-1", CriterionID: "ac-2", Detail: "d",
		Status: workflow.EvidenceSubmitted, SubmittedAt: stamp(1), UpdatedAt: stamp(1),
	}); err != nil {
		t.Fatalf("CreateEvidence() error = %v", err)
	}
	for _, node := range []ports.StructureNode{
		{Kind: ports.NodeUnit, ID: unit.ID},
		{Kind: ports.NodeLearningOutcome, ID: "lo-1"},
		{Kind: ports.NodeCriterion, ID: "ac-2"},
	} {
		count, err := structure.CountSubmissionsUnder(ctx, node)
		if err != nil || count != 1 {
			t.Fatalf("CountSubmissionsUnder(%s) = %d, %v", node.Kind, count, err)
		}
	}
	count, err = structure.CountSubmissionsUnder(ctx, ports.StructureNode{Kind: ports.NodeCriterion, ID: "ac-1"})
	if err != nil || count != 0 {
		t.Fatalf("CountSubmissionsUnder(ac-1) = %d, %v", count, err)
	}

	if err := structure.DeleteCriterion(ctx, "ac-2"); !errors.Is(err, ports.ErrReferenced) {
		t.Fatalf("DeleteCriterion(referenced) error = %v, want ErrReferenced", err)
	}
	if err := structure.DeleteUnit(ctx, unit.ID); !errors.Is(err, ports.ErrReferenced) {
		t.Fatalf("DeleteUnit(referenced) error = %v, want ErrReferenced", err)
	}
	if _, err := structure.GetCriterion(ctx, "ac-1"); err != nil {
		t.Fatalf("GetCriterion() after rejected delete error = %v", err)
	}

	if err := structure.DeleteCriterion(ctx, "ac-1"); err != nil {
		t.Fatalf("DeleteCriterion(unreferenced) error = %v", err)
	}
	if _, err := structure.GetCriterion(ctx, "ac-1"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("GetCriterion() after delete error = %v", err)
	}
}

func TestDeletingUnitRowCascadesToOutcomesAndCriteria(t *testing.T) {
	db := setupDB(t)
	structure := NewStructureRepository(db)
	ctx := context.Background()

	unit, _ := seedCriteria(t, db, 2)

	if err := db.Where("id = ?", unit.ID).Delete(&model.Unit{}).Error; err != nil {
		t.Fatalf("delete unit row: %v", err)
	}
	if _, err := structure.GetLearningOutcome(ctx, "lo-1"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("GetLearningOutcome() after unit delete error = %v", err)
	}
	criteria, err := structure.ListCriteriaByQualification(ctx, "q-1")
	if err != nil || len(criteria) != 0 {
		t.Fatalf("ListCriteriaByQualification() after unit delete = %+v, %v", criteria, err)
	}
}

func TestSubmissionsMustReferenceExistingRows(t *testing.T) {
	db := setupDB(t)
	seedCriteria(t, db, 1)
	evidence := NewEvidenceRepository(db)
	ctx := context.Background()

	err := evidence.CreateEvidence(ctx, ports.EvidenceSubmission{
		ID: "ev-1", LearnerID: "l-1", CriterionID: "ac-missing", Detail: "d",
		Status: workflow.EvidenceSubmitted, SubmittedAt: stamp(1), UpdatedAt: stamp(1),
	})
	if !errors.Is(err, ports.ErrReferenced) {
		t.Fatalf("CreateEvidence(missing criterion) error = %v, want ErrReferenced", err)
	}
	err = evidence.CreateWorkbook(ctx, ports.WorkbookSubmission{
		ID: "wb-1", LearnerID: "l-missing", LearningOutcomeID: "lo-1", Detail: "d",
		Status: workflow.EvidenceSubmitted, File: workflow.FileRef{Name: "wb.pdf", StorageKey: "k/wb"},
		SubmittedAt: stamp(1), UpdatedAt: stamp(1),
	})
	if !errors.Is(err, ports.ErrReferenced) {
		t.Fatalf("CreateWorkbook(missing learner) error = %v, want ErrReferenced", err)
	}
	err = evidence.CreateFeedback(ctx, ports.Feedback{
		ID: "fb-1", SubmissionID: "ev-missing", AssessorMembershipID: "m-assessor", Text: "t", CreatedAt: stamp(2),
	})
	if !errors.Is(err, ports.ErrReferenced) {
		t.Fatalf("CreateFeedback(missing submission) error = %v, want ErrReferenced", err)
	}
}

func TestQualificationNumberUniquePerBusiness(t *testing.T) {
	db := setupDB(t)
	repo := NewStructureRepository(db)
	ctx := context.Background()

	insertRows(t, db,
		&model.Business{ID: "b-1", Name: "Acme", CreatedAt: stamp(0)},
		&model.Business{ID: "b-2", Name: "Beta", CreatedAt: stamp(0)},
	)

	q := ports.Qualification{ID: "q-1", BusinessID: "b-1", Title: "Diploma", Number: "600/1", CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	if err := repo.CreateQualification(ctx, q); err != nil {
		t.Fatalf("CreateQualification() error = %v", err)
	}
	q.ID = "q-2"
	if err := repo.CreateQualification(ctx, q); err == nil {
		t.Fatalf("CreateQualification(duplicate number) expected error")
	}
	q.ID = "q-3"
	q.BusinessID = "b-2"
	if err := repo.CreateQualification(ctx, q); err != nil {
		t.Fatalf("CreateQualification(other business) error = %v", err)
	}

	found, err := repo.FindQualificationByNumber(ctx, "b-2", "600/1")
	if err != nil || found.ID != "q-3" {
		t.Fatalf("FindQualificationByNumber() = %+v, %v", found, err)
	}
}

func TestEvidenceLatestHistoryAndDecide(t *testing.T) {
	db := setupDB(t)
	seedCriteria(t, db, 1)
	repo := NewEvidenceRepository(db)
	ctx := context.Background()

	first := ports.EvidenceSubmission{
		ID: "ev-1", LearnerID: "l-1", CriterionID: "ac-1", Detail: "first",
		Status: workflow.EvidenceRejected, SubmittedAt: stamp(1), UpdatedAt: stamp(2),
		Files: []ports.FileRecord{{ID: "f-1", Name: "a.pdf", StorageKey: "k/a.pdf", SizeBytes: 10, CreatedAt: stamp(1)}},
	}
	second := ports.EvidenceSubmission{
		ID: "ev-2", LearnerID: "l-1", CriterionID: "ac-1", Detail: "second",
		Status: workflow.EvidenceSubmitted, SubmittedAt: stamp(3), UpdatedAt: stamp(3),
	}
	for _, item := range []ports.EvidenceSubmission{first, second} {
		if err := repo.CreateEvidence(ctx, item); err != nil {
			t.Fatalf("CreateEvidence(%s) error = %v", item.ID, err)
		}
	}

	latest, err := repo.LatestEvidence(ctx, "l-1", "ac-1")
	if err != nil {
		t.Fatalf("LatestEvidence() error = %v", err)
	}
	if latest.ID != "ev-2" {
		t.Fatalf("LatestEvidence() id = %s, want ev-2", latest.ID)
	}

	history, err := repo.ListEvidenceHistory(ctx, "l-1", "ac-1")
	if err != nil {
		t.Fatalf("ListEvidenceHistory() error = %v", err)
	}
	if len(history) != 2 || history[1].ID != "ev-1" || len(history[1].Files) != 1 {
		t.Fatalf("ListEvidenceHistory() = %+v", history)
	}

	applied, err := repo.DecideEvidence(ctx, "ev-2", workflow.EvidenceAccepted, "m-assessor", stamp(4))
	if err != nil || !applied {
		t.Fatalf("DecideEvidence() = %v, %v", applied, err)
	}
	applied, err = repo.DecideEvidence(ctx, "ev-2", workflow.EvidenceRejected, "m-assessor", stamp(5))
	if err != nil || applied {
		t.Fatalf("DecideEvidence(second) = %v, %v", applied, err)
	}

	got, err := repo.GetEvidence(ctx, "ev-2")
	if err != nil {
		t.Fatalf("GetEvidence() error = %v", err)
	}
	if got.Status != workflow.EvidenceAccepted || got.AssessorMembershipID != "m-assessor" {
		t.Fatalf("GetEvidence() = %+v", got)
	}

	statuses, err := repo.LatestStatuses(ctx, "l-1", []string{"ac-1", "ac-9"})
	if err != nil {
		t.Fatalf("LatestStatuses() error = %v", err)
	}
	if len(statuses) != 1 || statuses["ac-1"] != workflow.EvidenceAccepted {
		t.Fatalf("LatestStatuses() = %v", statuses)
	}
}

func TestOnlyOneSubmittedRowPerLearnerAndNode(t *testing.T) {
	db := setupDB(t)
	seedCriteria(t, db, 1)
	repo := NewEvidenceRepository(db)
	ctx := context.Background()

	open := func(id string, second int) ports.EvidenceSubmission {
		return ports.EvidenceSubmission{
			ID: id, LearnerID: "l-1", CriterionID: "ac-1", Detail: id,
			Status: workflow.EvidenceSubmitted, SubmittedAt: stamp(second), UpdatedAt: stamp(second),
		}
	}
	if err := repo.CreateEvidence(ctx, open("ev-1", 1)); err != nil {
		t.Fatalf("CreateEvidence(first) error = %v", err)
	}
	if err := repo.CreateEvidence(ctx, open("ev-2", 2)); !errors.Is(err, ports.ErrDuplicate) {
		t.Fatalf("CreateEvidence(second submitted) error = %v, want ErrDuplicate", err)
	}
	if _, err := repo.DecideEvidence(ctx, "ev-1", workflow.EvidenceRejected, "m-assessor", stamp(3)); err != nil {
		t.Fatalf("DecideEvidence() error = %v", err)
	}
	if err := repo.CreateEvidence(ctx, open("ev-2", 4)); err != nil {
		t.Fatalf("CreateEvidence(after rejection) error = %v", err)
	}

	workbook := func(id string, second int) ports.WorkbookSubmission {
		return ports.WorkbookSubmission{
			ID: id, LearnerID: "l-1", LearningOutcomeID: "lo-1", Detail: id,
			Status: workflow.EvidenceSubmitted, File: workflow.FileRef{Name: id + ".pdf", StorageKey: "k/" + id},
			SubmittedAt: stamp(second), UpdatedAt: stamp(second),
		}
	}
	if err := repo.CreateWorkbook(ctx, workbook("wb-1", 1)); err != nil {
		t.Fatalf("CreateWorkbook(first) error = %v", err)
	}
	if err := repo.CreateWorkbook(ctx, workbook("wb-2", 2)); !errors.Is(err, ports.ErrDuplicate) {
		t.Fatalf("CreateWorkbook(second submitted) error = %v, want ErrDuplicate", err)
	}
}

func TestUpdatePendingEvidenceReplacesFiles(t *testing.T) {
	db := setupDB(t)
	seedCriteria(t, db, 1)
	repo := NewEvidenceRepository(db)
	ctx := context.Background()

	if err := repo.CreateEvidence(ctx, ports.EvidenceSubmission{
		ID: "ev-1", LearnerID: "l-1", CriterionID: "ac-1", Detail: "draft",
		Status: workflow.EvidenceSubmitted, SubmittedAt: stamp(1), UpdatedAt: stamp(1),
		Files: []ports.FileRecord{{ID: "f-1", Name: "a.pdf", StorageKey: "k/a", CreatedAt: stamp(1)}},
	}); err != nil {
		t.Fatalf("CreateEvidence() error = %v", err)
	}

	if err := repo.UpdatePendingEvidence(ctx, "ev-1", "edited", nil, stamp(2)); err != nil {
		t.Fatalf("UpdatePendingEvidence(no files) error = %v", err)
	}
	got, _ := repo.GetEvidence(ctx, "ev-1")
	if got.Detail != "edited" || len(got.Files) != 1 {
		t.Fatalf("after detail edit = %+v", got)
	}

	files := []ports.FileRecord{
		{ID: "f-2", Name: "b.pdf", StorageKey: "k/b", CreatedAt: stamp(3)},
		{ID: "f-3", Name: "c.png", StorageKey: "k/c", CreatedAt: stamp(3)},
	}
	if err := repo.UpdatePendingEvidence(ctx, "ev-1", "edited", files, stamp(3)); err != nil {
		t.Fatalf("UpdatePendingEvidence(files) error = %v", err)
	}
	got, _ = repo.GetEvidence(ctx, "ev-1")
	if len(got.Files) != 2 || got.Files[0].ID != "f-2" {
		t.Fatalf("after file replace = %+v", got.Files)
	}

	if _, err := repo.DecideEvidence(ctx, "ev-1", workflow.EvidenceAccepted, "m-a", stamp(4)); err != nil {
		t.Fatalf("DecideEvidence() error = %v", err)
	}
	if err := repo.UpdatePendingEvidence(ctx, "ev-1", "late", nil, stamp(5)); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("UpdatePendingEvidence(accepted) error = %v", err)
	}
}

func TestDocumentSubmissionAndRemarks(t *testing.T) {
	db := setupDB(t)
	seedLearner(t, db)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	if err := repo.CreateRequirement(ctx, ports.DocumentRequirement{ID: "r-1", QualificationID: "q-1", Title: "Photo ID", CreatedAt: stamp(0)}); err != nil {
		t.Fatalf("CreateRequirement() error = %v", err)
	}
	sub := ports.DocumentSubmission{
		ID: "d-1", LearnerID: "l-1", RequirementID: "r-1",
		File:   workflow.FileRef{Name: "id.pdf", StorageKey: "k/id"},
		Status: workflow.DocumentPending, SubmittedAt: stamp(1), UpdatedAt: stamp(1),
	}
	if err := repo.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}
	dup := sub
	dup.ID = "d-2"
	if err := repo.CreateSubmission(ctx, dup); err == nil {
		t.Fatalf("CreateSubmission(duplicate) expected error")
	}

	rejected := sub
	rejected.Status = workflow.DocumentRejected
	rejected.Comments = "blurred"
	rejected.AssessorMembershipID = "m-a"
	applied, err := repo.UpdateSubmission(ctx, rejected, workflow.DocumentPending)
	if err != nil || !applied {
		t.Fatalf("UpdateSubmission() = %v, %v", applied, err)
	}
	got, err := repo.FindSubmission(ctx, "l-1", "r-1")
	if err != nil {
		t.Fatalf("FindSubmission() error = %v", err)
	}
	if got.Status != workflow.DocumentRejected || got.Comments != "blurred" || got.AssessorMembershipID != "m-a" {
		t.Fatalf("FindSubmission() = %+v", got)
	}

	for i, outcome := range []workflow.Outcome{workflow.OutcomeNonConformance, workflow.OutcomeOK} {
		if err := repo.ReplaceRemark(ctx, ports.DocumentRemark{
			ID: fmt.Sprintf("rm-%d", i), SubmissionID: "d-1", IQAMembershipID: "m-iqa",
			Remark: outcome, Comments: "c", CreatedAt: stamp(2 + i),
		}); err != nil {
			t.Fatalf("ReplaceRemark() error = %v", err)
		}
	}
	remarks, err := repo.ListRemarks(ctx, "d-1")
	if err != nil {
		t.Fatalf("ListRemarks() error = %v", err)
	}
	if len(remarks) != 1 || remarks[0].Remark != workflow.OutcomeOK {
		t.Fatalf("ListRemarks() = %+v", remarks)
	}
}

func TestStaleDocumentUpdateDoesNotOverwriteDecision(t *testing.T) {
	db := setupDB(t)
	seedLearner(t, db)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	if err := repo.CreateRequirement(ctx, ports.DocumentRequirement{ID: "r-1", QualificationID: "q-1", Title: "Photo ID", CreatedAt: stamp(0)}); err != nil {
		t.Fatalf("CreateRequirement() error = %v", err)
	}
	pending := ports.DocumentSubmission{
		ID: "d-1", LearnerID: "l-1", RequirementID: "r-1",
		File:   workflow.FileRef{Name: "id.pdf", StorageKey: "k/id"},
		Status: workflow.DocumentPending, SubmittedAt: stamp(1), UpdatedAt: stamp(1),
	}
	if err := repo.CreateSubmission(ctx, pending); err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}

	accepted := pending
	accepted.Status = workflow.DocumentAccepted
	accepted.AssessorMembershipID = "m-assessor"
	accepted.UpdatedAt = stamp(2)
	applied, err := repo.UpdateSubmission(ctx, accepted, workflow.DocumentPending)
	if err != nil || !applied {
		t.Fatalf("UpdateSubmission(accept) = %v, %v", applied, err)
	}

	stale := pending
	stale.File = workflow.FileRef{Name: "id-v2.pdf", StorageKey: "k/id-v2"}
	stale.UpdatedAt = stamp(3)
	applied, err = repo.UpdateSubmission(ctx, stale, workflow.DocumentPending)
	if err != nil {
		t.Fatalf("UpdateSubmission(stale) error = %v", err)
	}
	if applied {
		t.Fatalf("UpdateSubmission(stale) applied over an accepted document")
	}

	got, err := repo.GetSubmission(ctx, "d-1")
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if got.Status != workflow.DocumentAccepted || got.File.Name != "id.pdf" {
		t.Fatalf("GetSubmission() = %+v", got)
	}
}

func TestAssignmentsHeldRolesAndSharedLearner(t *testing.T) {
	db := setupDB(t)
	seedMembers(t, db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	if err := repo.CreateLearner(ctx, ports.LearnerAssignment{
		ID: "l-1", MembershipID: "m-learner", QualificationID: "q-1",
		AssessorMembershipID: "m-assessor", IQAMembershipID: "m-iqa", IsActive: true,
		CreatedAt: stamp(0), UpdatedAt: stamp(0),
	}); err != nil {
		t.Fatalf("CreateLearner() error = %v", err)
	}
	if err := repo.CreateLearner(ctx, ports.LearnerAssignment{
		ID: "l-2", MembershipID: "m-second", QualificationID: "q-1", IsActive: true,
		CreatedAt: stamp(0), UpdatedAt: stamp(0),
	}); err != nil {
		t.Fatalf("CreateLearner(second) error = %v", err)
	}
	if err := repo.CreateStaff(ctx, ports.StaffAssignment{ID: "s-1", Role: workflow.RoleAssessor, MembershipID: "m-assessor", QualificationID: "q-1", CreatedAt: stamp(0)}); err != nil {
		t.Fatalf("CreateStaff() error = %v", err)
	}
	if err := repo.CreateStaff(ctx, ports.StaffAssignment{ID: "s-eqa", Role: workflow.RoleEQA, MembershipID: "m-eqa", QualificationID: "q-1", CreatedAt: stamp(0)}); err != nil {
		t.Fatalf("CreateStaff(eqa) error = %v", err)
	}

	roles, err := repo.HeldRoles(ctx, "m-learner", "q-1")
	if err != nil || !roles.Has(workflow.RoleLearner) || len(roles) != 1 {
		t.Fatalf("HeldRoles(learner) = %v, %v", roles, err)
	}
	roles, err = repo.HeldRoles(ctx, "m-assessor", "q-1")
	if err != nil || !roles.Has(workflow.RoleAssessor) {
		t.Fatalf("HeldRoles(assessor) = %v, %v", roles, err)
	}
	roles, err = repo.HeldRoles(ctx, "m-assessor", "q-2")
	if err != nil || len(roles) != 0 {
		t.Fatalf("HeldRoles(other qualification) = %v, %v", roles, err)
	}

	shared, err := repo.ShareLearner(ctx, "m-iqa", "m-assessor")
	if err != nil || !shared {
		t.Fatalf("ShareLearner() = %v, %v", shared, err)
	}
	shared, err = repo.ShareLearner(ctx, "m-iqa", "m-eqa")
	if err != nil || shared {
		t.Fatalf("ShareLearner(other) = %v, %v", shared, err)
	}

	learner, err := repo.GetLearner(ctx, "l-1")
	if err != nil {
		t.Fatalf("GetLearner() error = %v", err)
	}
	learner.IsActive = false
	learner.AssessorMembershipID = ""
	learner.UpdatedAt = stamp(5)
	if err := repo.UpdateLearner(ctx, learner); err != nil {
		t.Fatalf("UpdateLearner() error = %v", err)
	}
	active, err := repo.ListLearners(ctx, ports.LearnerFilter{QualificationID: "q-1", IQAMembershipID: "m-iqa", ActiveOnly: true})
	if err != nil || len(active) != 0 {
		t.Fatalf("ListLearners(active) = %v, %v", active, err)
	}
	learner, _ = repo.GetLearner(ctx, "l-1")
	if learner.AssessorMembershipID != "" || learner.MembershipID != "m-learner" {
		t.Fatalf("GetLearner() after update = %+v", learner)
	}

	if err := repo.SetEQALearners(ctx, "s-eqa", []string{"l-1", "l-2"}); err != nil {
		t.Fatalf("SetEQALearners() error = %v", err)
	}
	if err := repo.SetEQALearners(ctx, "s-eqa", []string{"l-2"}); err != nil {
		t.Fatalf("SetEQALearners(replace) error = %v", err)
	}
	ids, err := repo.ListEQALearners(ctx, "s-eqa")
	if err != nil || len(ids) != 1 || ids[0] != "l-2" {
		t.Fatalf("ListEQALearners() = %v, %v", ids, err)
	}
	if err := repo.SetEQALearners(ctx, "s-eqa", []string{"l-missing"}); !errors.Is(err, ports.ErrReferenced) {
		t.Fatalf("SetEQALearners(missing learner) error = %v, want ErrReferenced", err)
	}
}

func TestLockMembershipNeedsTransaction(t *testing.T) {
	db := setupDB(t)
	seedMembers(t, db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	if err := repo.LockMembership(ctx, "m-learner"); err == nil {
		t.Fatalf("LockMembership() outside a transaction expected error")
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		txCtx := ports.WithTxContext(ctx, tx)
		if err := repo.LockMembership(txCtx, "m-learner"); err != nil {
			return err
		}
		if err := repo.LockMembership(txCtx, "m-missing"); !errors.Is(err, ports.ErrRecordNotFound) {
			t.Fatalf("LockMembership(missing) error = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("LockMembership() in transaction error = %v", err)
	}
}

func TestSamplingCountsDistinctUnits(t *testing.T) {
	db := setupDB(t)
	unit, _ := seedCriteria(t, db, 1)
	structure := NewStructureRepository(db)
	repo := NewSamplingRepository(db)
	ctx := context.Background()

	if err := structure.CreateUnit(ctx, ports.Unit{ID: "unit-2", QualificationID: "q-1", Title: "Unit 2", Number: "U2", SerialNumber: 2, CreatedAt: stamp(0), UpdatedAt: stamp(0)}); err != nil {
		t.Fatalf("CreateUnit() error = %v", err)
	}
	if err := NewEvidenceRepository(db).CreateEvidence(ctx, ports.EvidenceSubmission{
		ID: "ev-1", LearnerID: "l-1", CriterionID: "ac-1", Detail: "d",
		Status: workflow.EvidenceAccepted, SubmittedAt: stamp(1), UpdatedAt: stamp(1),
	}); err != nil {
		t.Fatalf("CreateEvidence() error = %v", err)
	}

	for i, unitID := range []string{unit.ID, unit.ID, "unit-2"} {
		if err := repo.CreateSampling(ctx, ports.Sampling{
			ID: fmt.Sprintf("s-%d", i), IQAMembershipID: "m-iqa", LearnerID: "l-1", UnitID: unitID,
			EvidenceID: "ev-1", SamplingType: workflow.SamplingInterim, Outcome: workflow.OutcomeOK, CreatedAt: stamp(i),
		}); err != nil {
			t.Fatalf("CreateSampling() error = %v", err)
		}
	}
	count, err := repo.CountSampledUnits(ctx, "m-iqa", "l-1")
	if err != nil || count != 2 {
		t.Fatalf("CountSampledUnits() = %d, %v", count, err)
	}
	count, err = repo.CountSampledUnits(ctx, "m-other", "l-1")
	if err != nil || count != 0 {
		t.Fatalf("CountSampledUnits(other iqa) = %d, %v", count, err)
	}

	items, err := repo.ListSamplings(ctx, ports.SamplingFilter{LearnerID: "l-1", UnitID: unit.ID})
	if err != nil || len(items) != 2 || items[0].ID != "s-1" {
		t.Fatalf("ListSamplings() = %+v, %v", items, err)
	}
}

func TestNotificationsMarkReadScopedToRecipient(t *testing.T) {
	db := setupDB(t)
	seedMembers(t, db)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i, recipient := range []string{"m-learner", "m-learner", "m-assessor"} {
		if err := repo.CreateNotification(ctx, ports.Notification{
			ID: fmt.Sprintf("n-%d", i), RecipientMembershipID: recipient, Message: "hello", CreatedAt: stamp(i),
		}); err != nil {
			t.Fatalf("CreateNotification() error = %v", err)
		}
	}

	changed, err := repo.MarkRead(ctx, "m-learner", []string{"n-0", "n-2"})
	if err != nil || changed != 1 {
		t.Fatalf("MarkRead() = %d, %v", changed, err)
	}
	unread, err := repo.ListNotifications(ctx, "m-learner", true)
	if err != nil || len(unread) != 1 || unread[0].ID != "n-1" {
		t.Fatalf("ListNotifications(unread) = %+v, %v", unread, err)
	}
	changed, err = repo.MarkRead(ctx, "m-learner", nil)
	if err != nil || changed != 1 {
		t.Fatalf("MarkRead(all) = %d, %v", changed, err)
	}
}

func TestDirectoryMembersAndAdmins(t *testing.T) {
	repo := NewDirectoryRepository(setupDB(t))
	ctx := context.Background()

	if err := repo.CreateBusiness(ctx, ports.Business{ID: "b-1", Name: "Acme Training", CreatedAt: stamp(0)}); err != nil {
		t.Fatalf("CreateBusiness() error = %v", err)
	}
	people := []ports.Person{
		{ID: "p-1", Email: "Admin@Example.com", FullName: "Ada Admin", CreatedAt: stamp(0)},
		{ID: "p-2", Email: "learner@example.com", CreatedAt: stamp(0)},
	}
	for _, person := range people {
		if err := repo.CreatePerson(ctx, person); err != nil {
			t.Fatalf("CreatePerson() error = %v", err)
		}
	}
	if err := repo.CreateMembership(ctx, ports.Membership{ID: "m-1", PersonID: "p-1", BusinessID: "b-1", Type: workflow.MembershipAdmin, CreatedAt: stamp(1)}); err != nil {
		t.Fatalf("CreateMembership() error = %v", err)
	}
	if err := repo.CreateMembership(ctx, ports.Membership{ID: "m-2", PersonID: "p-2", BusinessID: "b-1", Type: workflow.MembershipUser, CreatedAt: stamp(2)}); err != nil {
		t.Fatalf("CreateMembership() error = %v", err)
	}

	member, err := repo.GetMember(ctx, "p-2", "b-1")
	if err != nil {
		t.Fatalf("GetMember() error = %v", err)
	}
	if member.ID != "m-2" || member.Email != "learner@example.com" || member.DisplayName() != "learner@example.com" {
		t.Fatalf("GetMember() = %+v", member)
	}
	if _, err := repo.GetMember(ctx, "p-2", "b-9"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("GetMember(unknown business) error = %v", err)
	}

	person, err := repo.GetPersonByEmail(ctx, " admin@example.com ")
	if err != nil || person.ID != "p-1" {
		t.Fatalf("GetPersonByEmail() = %+v, %v", person, err)
	}

	admins, err := repo.ListAdmins(ctx, "b-1")
	if err != nil || len(admins) != 1 || admins[0].FullName != "Ada Admin" {
		t.Fatalf("ListAdmins() = %+v, %v", admins, err)
	}
}
