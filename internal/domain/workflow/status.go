package workflow

import "strings"

// EvidenceStatus is shared by evidence and workbook submissions.
type EvidenceStatus string

const (
	EvidenceNotSubmitted EvidenceStatus = "NOT_SUBMITTED"
	EvidenceSubmitted    EvidenceStatus = "SUBMITTED"
	EvidenceAccepted     EvidenceStatus = "ACCEPTED"
	EvidenceRejected     EvidenceStatus = "REJECTED"
)

// Label is the text shown to people; a rejected row asks for resubmission.
func (s EvidenceStatus) Label() string {
	switch s {
	case EvidenceSubmitted:
		return "Submitted"
	case EvidenceAccepted:
		return "Accepted"
	case EvidenceRejected:
		return "Resubmission Required"
	default:
		return "Not Submitted"
	}
}

// ParseDecision accepts only the two statuses an assessor may set.
func ParseDecision(raw string) (EvidenceStatus, error) {
	switch EvidenceStatus(normalizeEnum(raw)) {
	case EvidenceAccepted:
		return EvidenceAccepted, nil
	case EvidenceRejected:
		return EvidenceRejected, nil
	default:
		return "", Invalid("status", "decision must be ACCEPTED or REJECTED")
	}
}

type DocumentStatus string

const (
	DocumentNotSubmitted DocumentStatus = "NOT_SUBMITTED"
	DocumentPending      DocumentStatus = "PENDING"
	DocumentAccepted     DocumentStatus = "ACCEPTED"
	DocumentRejected     DocumentStatus = "REJECTED"
)

func (s DocumentStatus) Editable() bool {
	return s == DocumentPending || s == DocumentRejected
}

func ParseDocumentDecision(raw string) (DocumentStatus, error) {
	switch DocumentStatus(normalizeEnum(raw)) {
	case DocumentAccepted:
		return DocumentAccepted, nil
	case DocumentRejected:
		return DocumentRejected, nil
	default:
		return "", Invalid("status", "document decision must be ACCEPTED or REJECTED")
	}
}

type SamplingType string

const (
	SamplingInterim   SamplingType = "INTERIM"
	SamplingSummative SamplingType = "SUMMATIVE"
)

func ParseSamplingType(raw string) (SamplingType, error) {
	switch SamplingType(normalizeEnum(raw)) {
	case SamplingInterim:
		return SamplingInterim, nil
	case SamplingSummative:
		return SamplingSummative, nil
	default:
		return "", Invalid("sampling_type", "must be INTERIM or SUMMATIVE")
	}
}

// Outcome is used by sampling records and IQA document remarks.
type Outcome string

const (
	OutcomeOK             Outcome = "OK"
	OutcomeNonConformance Outcome = "NON_CONFORMANCE"
)

func ParseOutcome(raw string) (Outcome, error) {
	switch Outcome(normalizeEnum(raw)) {
	case OutcomeOK:
		return OutcomeOK, nil
	case OutcomeNonConformance:
		return OutcomeNonConformance, nil
	default:
		return "", Invalid("outcome", "must be OK or NON_CONFORMANCE")
	}
}

func (o Outcome) Label() string {
	if o == OutcomeNonConformance {
		return "Non-Conformance"
	}
	return "OK"
}

// MembershipType distinguishes business admins from everyone else.
type MembershipType string

const (
	MembershipAdmin MembershipType = "admin"
	MembershipUser  MembershipType = "user"
)

func normalizeEnum(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, "-", "_")
	return strings.ReplaceAll(value, " ", "_")
}
