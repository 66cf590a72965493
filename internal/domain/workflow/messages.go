package workflow

import "fmt"

// Email template identifiers understood by the mail adapters.
const (
	TemplateSubmissionReceived = "submission_received"
	TemplateDecision           = "decision"
	TemplateNonConformance     = "non_conformance"
	TemplateNotification       = "notification"
	TemplateMessage            = "message"
)

func EvidenceSubmittedMessage(learnerName string, kind string, qualificationTitle string) string {
	return fmt.Sprintf("%s submitted %s for %s and is awaiting review.", learnerName, kind, qualificationTitle)
}

func EvidenceDecisionMessage(criterion string, status EvidenceStatus) string {
	verdict := "Accepted"
	if status == EvidenceRejected {
		verdict = "Rejected (resubmission required)"
	}
	return fmt.Sprintf("Your latest Submission for '%s' has been %s.", criterion, verdict)
}

func WorkbookDecisionMessage(outcome string, status EvidenceStatus) string {
	verdict := "Accepted"
	if status == EvidenceRejected {
		verdict = "Rejected (resubmission required)"
	}
	return fmt.Sprintf("Your workbook for '%s' has been %s.", outcome, verdict)
}

func DocumentDecisionMessage(title string, status DocumentStatus, comments string) string {
	verdict := "accepted"
	if status == DocumentRejected {
		verdict = "rejected"
	}
	if comments == "" {
		comments = "None"
	}
	return fmt.Sprintf("Your document '%s' was %s. Comments: %s", title, verdict, comments)
}

func DocumentRemarkLearnerMessage(title string, comments string) string {
	return fmt.Sprintf("IQA marked document '%s' as Non-Conformance. Comments: %s", title, comments)
}

func DocumentRemarkAssessorMessage(learnerName string, title string, comments string) string {
	return fmt.Sprintf("IQA marked %s's document '%s' as Non-Conformance. Comments: %s", learnerName, title, comments)
}

func SamplingNonConformanceMessage(learnerName string, unitTitle string, iqaName string) string {
	return fmt.Sprintf("%s's %s has been marked unsatisfactory by %s.", learnerName, unitTitle, iqaName)
}

// DefaultSamplingFeedback is stored on the IQA feedback row when the IQA leaves no comments.
func DefaultSamplingFeedback(samplingType SamplingType, outcome Outcome) string {
	return fmt.Sprintf("%s sampling: %s", samplingType, outcome)
}
