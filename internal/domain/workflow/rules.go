package workflow

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength  = 200
	MaxNumberLength = 50
	MaxBodyLength   = 5000
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// SubmissionAction says how a learner upload lands in storage.
type SubmissionAction int

const (
	SubmissionCreate SubmissionAction = iota + 1
	SubmissionUpdateInPlace
)

// PlanEvidenceSubmission decides between a new history row and an in-place edit,
// based on the latest row for the (learner, criterion) pair.
func PlanEvidenceSubmission(latest EvidenceStatus) (SubmissionAction, error) {
	switch latest {
	case EvidenceAccepted:
		return 0, Locked("evidence is already accepted")
	case EvidenceSubmitted:
		return SubmissionUpdateInPlace, nil
	default:
		return SubmissionCreate, nil
	}
}

// DecisionApplies reports whether an assessor decision may change a row in this status.
func DecisionApplies(current EvidenceStatus) bool {
	return current == EvidenceSubmitted
}

// PlanDocumentSubmission keeps one row per (learner, requirement).
func PlanDocumentSubmission(existing DocumentStatus) (SubmissionAction, error) {
	switch existing {
	case DocumentAccepted:
		return 0, Locked("document is already accepted")
	case DocumentPending, DocumentRejected:
		return SubmissionUpdateInPlace, nil
	default:
		return SubmissionCreate, nil
	}
}

func CheckDocumentDecision(current DocumentStatus, next DocumentStatus, comments string) error {
	if current == DocumentAccepted {
		return Locked("document is already accepted")
	}
	if next == DocumentRejected && strings.TrimSpace(comments) == "" {
		return Invalid("comments", "comments are required when rejecting a document")
	}
	return nil
}

func CheckRemark(outcome Outcome, comments string) error {
	if outcome == OutcomeNonConformance && strings.TrimSpace(comments) == "" {
		return Invalid("comments", "comments are required for Non-Conformance remarks")
	}
	return nil
}

// CanSample is true when the unit has criteria and every latest submission is accepted.
func CanSample(totalCriteria int, latest map[string]EvidenceStatus) bool {
	if totalCriteria == 0 || len(latest) < totalCriteria {
		return false
	}
	accepted := 0
	for _, status := range latest {
		if status != EvidenceAccepted {
			return false
		}
		accepted++
	}
	return accepted >= totalCriteria
}

func CompletionPercentage(accepted int, total int) float64 {
	return percentage(accepted, total)
}

func SamplingRatio(sampledUnits int, totalUnits int) float64 {
	return percentage(sampledUnits, totalUnits)
}

func percentage(part int, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// CheckStructuralDelete blocks removing a qualification node that evidence points at.
func CheckStructuralDelete(node string, evidenceCount int64) error {
	if evidenceCount > 0 {
		return Invalid(node, "cannot delete: evidence has been submitted against it")
	}
	return nil
}

// RequireText trims value and enforces non-empty plus an optional rune limit.
func RequireText(field string, value string, maxRunes int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", Invalid(field, "cannot be empty")
	}
	if maxRunes > 0 && utf8.RuneCountInString(trimmed) > maxRunes {
		return "", Invalid(field, "too long")
	}
	return trimmed, nil
}

func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return Invalid("phone_number", "must be entered in the format '+999999999', up to 15 digits")
	}
	return nil
}

func ValidateRegistrationDate(registered time.Time, now time.Time) error {
	if registered.IsZero() {
		return nil
	}
	y1, m1, d1 := registered.Date()
	y2, m2, d2 := now.Date()
	if time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).After(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)) {
		return Invalid("date_of_registration", "cannot be in the future")
	}
	return nil
}
