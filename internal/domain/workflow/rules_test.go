package workflow

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCheckAssignable(t *testing.T) {
	testCases := []struct {
		name      string
		held      RoleSet
		requested Role
		wantErr   error
		existing  Role
	}{
		{name: "fresh person", held: NewRoleSet(), requested: RoleAssessor},
		{name: "admin is business wide", held: NewRoleSet(RoleAdmin), requested: RoleLearner},
		{name: "learner cannot assess", held: NewRoleSet(RoleLearner), requested: RoleAssessor, wantErr: ErrRoleConflict, existing: RoleLearner},
		{name: "eqa exclusive", held: NewRoleSet(RoleIQA), requested: RoleEQA, wantErr: ErrRoleConflict, existing: RoleIQA},
		{name: "duplicate", held: NewRoleSet(RoleIQA), requested: RoleIQA, wantErr: ErrRoleConflict, existing: RoleIQA},
		{name: "admin not assignable", held: NewRoleSet(), requested: RoleAdmin, wantErr: ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckAssignable(tc.held, tc.requested)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("CheckAssignable() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("CheckAssignable() error = %v, want %v", err, tc.wantErr)
			}
			var conflict *RoleConflictError
			if errors.As(err, &conflict) && conflict.Existing != tc.existing {
				t.Fatalf("conflict existing = %s, want %s", conflict.Existing, tc.existing)
			}
		})
	}
}

func TestPlanEvidenceSubmission(t *testing.T) {
	action, err := PlanEvidenceSubmission(EvidenceNotSubmitted)
	if err != nil || action != SubmissionCreate {
		t.Fatalf("PlanEvidenceSubmission(not submitted) = %v, %v", action, err)
	}
	action, err = PlanEvidenceSubmission(EvidenceRejected)
	if err != nil || action != SubmissionCreate {
		t.Fatalf("PlanEvidenceSubmission(rejected) = %v, %v", action, err)
	}
	action, err = PlanEvidenceSubmission(EvidenceSubmitted)
	if err != nil || action != SubmissionUpdateInPlace {
		t.Fatalf("PlanEvidenceSubmission(submitted) = %v, %v", action, err)
	}
	if _, err := PlanEvidenceSubmission(EvidenceAccepted); !errors.Is(err, ErrLocked) {
		t.Fatalf("PlanEvidenceSubmission(accepted) error = %v, want ErrLocked", err)
	}
}

func TestDocumentRules(t *testing.T) {
	if action, err := PlanDocumentSubmission(DocumentRejected); err != nil || action != SubmissionUpdateInPlace {
		t.Fatalf("PlanDocumentSubmission(rejected) = %v, %v", action, err)
	}
	if _, err := PlanDocumentSubmission(DocumentAccepted); !errors.Is(err, ErrLocked) {
		t.Fatalf("PlanDocumentSubmission(accepted) error = %v", err)
	}

	if err := CheckDocumentDecision(DocumentRejected, DocumentRejected, "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("CheckDocumentDecision() error = %v, want ErrValidation", err)
	}
	if err := CheckDocumentDecision(DocumentRejected, DocumentRejected, "blurred scan"); err != nil {
		t.Fatalf("CheckDocumentDecision() error = %v", err)
	}
	if err := CheckDocumentDecision(DocumentAccepted, DocumentRejected, "late"); !errors.Is(err, ErrLocked) {
		t.Fatalf("CheckDocumentDecision(accepted) error = %v, want ErrLocked", err)
	}
	if err := CheckRemark(OutcomeNonConformance, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("CheckRemark() error = %v", err)
	}
	if err := CheckRemark(OutcomeOK, ""); err != nil {
		t.Fatalf("CheckRemark(ok) error = %v", err)
	}
}

func TestCanSample(t *testing.T) {
	all := map[string]EvidenceStatus{"a": EvidenceAccepted, "b": EvidenceAccepted}
	if !CanSample(2, all) {
		t.Fatalf("CanSample() = false, want true")
	}
	if CanSample(3, all) {
		t.Fatalf("CanSample() with missing criterion = true")
	}
	if CanSample(2, map[string]EvidenceStatus{"a": EvidenceAccepted, "b": EvidenceSubmitted}) {
		t.Fatalf("CanSample() with pending criterion = true")
	}
	if CanSample(0, nil) {
		t.Fatalf("CanSample() for empty unit = true")
	}
}

func TestPercentages(t *testing.T) {
	if got := CompletionPercentage(1, 4); got != 25.0 {
		t.Fatalf("CompletionPercentage(1,4) = %v, want 25", got)
	}
	if got := CompletionPercentage(3, 0); got != 0 {
		t.Fatalf("CompletionPercentage(3,0) = %v, want 0", got)
	}
	if got := SamplingRatio(1, 2); got != 50.0 {
		t.Fatalf("SamplingRatio(1,2) = %v, want 50", got)
	}
}

func TestRequireText(t *testing.T) {
	got, err := RequireText("title", "  Level 3 Diploma ", MaxTitleLength)
	if err != nil || got != "Level 3 Diploma" {
		t.Fatalf("RequireText() = %q, %v", got, err)
	}
	if _, err := RequireText("title", strings.Repeat("x", 201), MaxTitleLength); !errors.Is(err, ErrValidation) {
		t.Fatalf("RequireText(too long) error = %v", err)
	}
	if _, err := RequireText("title", " ", 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("RequireText(blank) error = %v", err)
	}
}

func TestLearnerFieldValidation(t *testing.T) {
	if err := ValidatePhone("+447911123456"); err != nil {
		t.Fatalf("ValidatePhone() error = %v", err)
	}
	if err := ValidatePhone("12-34"); !errors.Is(err, ErrValidation) {
		t.Fatalf("ValidatePhone(bad) error = %v", err)
	}

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := ValidateRegistrationDate(now.Add(2*time.Hour), now); err != nil {
		t.Fatalf("ValidateRegistrationDate(same day) error = %v", err)
	}
	if err := ValidateRegistrationDate(now.AddDate(0, 0, 1), now); !errors.Is(err, ErrValidation) {
		t.Fatalf("ValidateRegistrationDate(tomorrow) error = %v", err)
	}
}

func TestFilePolicy(t *testing.T) {
	policy := DefaultFilePolicy()

	got, err := policy.Validate(FileRef{Name: " portfolio.PDF ", StorageKey: "evidence/a.pdf", SizeBytes: 1024})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.Name != "portfolio.PDF" {
		t.Fatalf("Validate() name = %q", got.Name)
	}

	if _, err := policy.Validate(FileRef{Name: "run.exe", StorageKey: "k", SizeBytes: 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate(exe) error = %v", err)
	}
	if _, err := policy.Validate(FileRef{Name: "big.mp4", StorageKey: "k", SizeBytes: DefaultMaxUploadBytes + 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate(oversized) error = %v", err)
	}

	small := FilePolicy{MaxBytes: 10, AllowedExtensions: []string{".txt"}}
	if _, err := small.ValidateAll([]FileRef{{Name: "a.txt", StorageKey: "k", SizeBytes: 10}}); err != nil {
		t.Fatalf("ValidateAll() error = %v", err)
	}
}

func TestParseEnums(t *testing.T) {
	if got, err := ParseDecision("accepted"); err != nil || got != EvidenceAccepted {
		t.Fatalf("ParseDecision() = %v, %v", got, err)
	}
	if _, err := ParseDecision("SUBMITTED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseDecision(SUBMITTED) error = %v", err)
	}
	if got, err := ParseOutcome("non-conformance"); err != nil || got != OutcomeNonConformance {
		t.Fatalf("ParseOutcome() = %v, %v", got, err)
	}
	if got, err := ParseSamplingType(" summative "); err != nil || got != SamplingSummative {
		t.Fatalf("ParseSamplingType() = %v, %v", got, err)
	}
	if EvidenceRejected.Label() != "Resubmission Required" {
		t.Fatalf("Label() = %q", EvidenceRejected.Label())
	}
	if !strings.Contains(EvidenceDecisionMessage("1.1.1", EvidenceAccepted), "Accepted") {
		t.Fatalf("decision message missing Accepted")
	}
}
