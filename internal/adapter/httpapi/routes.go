package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/usecase/workflow"
)

type fileBody struct {
	Name       string `json:"name" validate:"notblank"`
	StorageKey string `json:"storage_key" validate:"notblank"`
	SizeBytes  int64  `json:"size_bytes" validate:"gte=0"`
}

func (f fileBody) ref() domain.FileRef {
	return domain.FileRef{Name: f.Name, StorageKey: f.StorageKey, SizeBytes: f.SizeBytes}
}

func fileRefs(files []fileBody) []domain.FileRef {
	out := make([]domain.FileRef, 0, len(files))
	for _, file := range files {
		out = append(out, file.ref())
	}
	return out
}

type submitEvidenceBody struct {
	CriterionID string     `json:"criterion_id" validate:"notblank"`
	Detail      string     `json:"detail"`
	Files       []fileBody `json:"files" validate:"dive"`
}

type decisionBody struct {
	SubmissionID string `json:"submission_id" validate:"notblank"`
	Status       string `json:"status" validate:"oneof=ACCEPTED REJECTED accepted rejected"`
	Feedback     string `json:"feedback"`
}

type decideEvidenceBody struct {
	Decisions []decisionBody `json:"decisions" validate:"required,min=1,dive"`
}

type submitWorkbookBody struct {
	LearningOutcomeID string    `json:"learning_outcome_id" validate:"notblank"`
	Detail            string    `json:"detail"`
	File              *fileBody `json:"file"`
}

type statusBody struct {
	Status   string `json:"status" validate:"oneof=ACCEPTED REJECTED accepted rejected"`
	Comments string `json:"comments"`
}

type submitDocumentBody struct {
	RequirementID string   `json:"requirement_id" validate:"notblank"`
	File          fileBody `json:"file"`
	Comments      string   `json:"comments"`
}

type remarkBody struct {
	Remark   string `json:"remark" validate:"notblank"`
	Comments string `json:"comments"`
}

type samplingBody struct {
	LearnerID    string `json:"learner_id" validate:"notblank"`
	UnitID       string `json:"unit_id" validate:"notblank"`
	SamplingType string `json:"sampling_type" validate:"notblank"`
	Outcome      string `json:"outcome" validate:"notblank"`
	Comments     string `json:"comments"`
}

type assessorFeedbackBody struct {
	AssessorPersonID string `json:"assessor_person_id" validate:"notblank"`
	SamplingType     string `json:"sampling_type" validate:"notblank"`
	Date             string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Comments         string `json:"comments" validate:"notblank"`
}

type markReadBody struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,notblank"`
}

type resultResponse struct {
	ID       string   `json:"id"`
	Created  *bool    `json:"created,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *handler) roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.svc.ResolveRoles(r.Context(), requestContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles.Sorted()})
}

func (h *handler) qualificationTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.GetQualificationTree(r.Context(), requestContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *handler) submitEvidence(w http.ResponseWriter, r *http.Request) {
	var body submitEvidenceBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.SubmitEvidence(r.Context(), requestContext(r), workflow.SubmitEvidenceInput{
		CriterionID: body.CriterionID,
		Detail:      body.Detail,
		Files:       fileRefs(body.Files),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSubmit(w, out)
}

func (h *handler) decideEvidence(w http.ResponseWriter, r *http.Request) {
	var body decideEvidenceBody
	if !h.decode(w, r, &body) {
		return
	}
	decisions := make([]workflow.Decision, 0, len(body.Decisions))
	for _, item := range body.Decisions {
		decisions = append(decisions, workflow.Decision{SubmissionID: item.SubmissionID, Status: item.Status, Feedback: item.Feedback})
	}
	out, err := h.svc.DecideEvidenceBatch(r.Context(), requestContext(r), decisions)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) evidenceHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.EvidenceHistory(r.Context(), requestContext(r), chi.URLParam(r, "learnerID"), chi.URLParam(r, "criterionID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *handler) submitWorkbook(w http.ResponseWriter, r *http.Request) {
	var body submitWorkbookBody
	if !h.decode(w, r, &body) {
		return
	}
	input := workflow.SubmitWorkbookInput{LearningOutcomeID: body.LearningOutcomeID, Detail: body.Detail}
	if body.File != nil {
		file := body.File.ref()
		input.File = &file
	}
	out, err := h.svc.SubmitWorkbook(r.Context(), requestContext(r), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSubmit(w, out)
}

func (h *handler) decideWorkbook(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.DecideWorkbook(r.Context(), requestContext(r), workflow.Decision{
		SubmissionID: chi.URLParam(r, "submissionID"),
		Status:       body.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListDocuments(r.Context(), requestContext(r), chi.URLParam(r, "learnerID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": entries})
}

func (h *handler) submitDocument(w http.ResponseWriter, r *http.Request) {
	var body submitDocumentBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.SubmitDocument(r.Context(), requestContext(r), workflow.SubmitDocumentInput{
		RequirementID: body.RequirementID,
		File:          body.File.ref(),
		Comments:      body.Comments,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSubmit(w, out)
}

func (h *handler) decideDocument(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.DecideDocument(r.Context(), requestContext(r), workflow.DecideDocumentInput{
		SubmissionID: chi.URLParam(r, "submissionID"),
		Status:       body.Status,
		Comments:     body.Comments,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{ID: out.ID, Warnings: out.Warnings})
}

func (h *handler) remarkDocument(w http.ResponseWriter, r *http.Request) {
	var body remarkBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.RemarkDocument(r.Context(), requestContext(r), workflow.RemarkDocumentInput{
		SubmissionID: chi.URLParam(r, "submissionID"),
		Remark:       body.Remark,
		Comments:     body.Comments,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{ID: out.ID, Warnings: out.Warnings})
}

func (h *handler) canSample(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.CanSample(r.Context(), requestContext(r), workflow.SampleTarget{
		LearnerID: chi.URLParam(r, "learnerID"),
		UnitID:    chi.URLParam(r, "unitID"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"can_sample": ok})
}

func (h *handler) recordSampling(w http.ResponseWriter, r *http.Request) {
	var body samplingBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.RecordSampling(r.Context(), requestContext(r), workflow.RecordSamplingInput{
		LearnerID:    body.LearnerID,
		UnitID:       body.UnitID,
		SamplingType: body.SamplingType,
		Outcome:      body.Outcome,
		Comments:     body.Comments,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"sampling_id":     out.SamplingID,
		"iqa_feedback_id": out.IQAFeedbackID,
		"warnings":        out.Warnings,
	})
}

func (h *handler) assessorFeedback(w http.ResponseWriter, r *http.Request) {
	var body assessorFeedbackBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.GiveFeedbackToAssessor(r.Context(), requestContext(r), workflow.AssessorFeedbackInput{
		AssessorPersonID: body.AssessorPersonID,
		SamplingType:     body.SamplingType,
		Date:             body.Date,
		Comments:         body.Comments,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resultResponse{ID: out.ID})
}

func (h *handler) learnerProgress(w http.ResponseWriter, r *http.Request) {
	req := requestContext(r)
	learnerID := chi.URLParam(r, "learnerID")
	completion, err := h.svc.CompletionPercentage(r.Context(), req, learnerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ratio, err := h.svc.SamplingRatio(r.Context(), req, learnerID, r.URL.Query().Get("iqa"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"completion": completion, "sampling_ratio": ratio})
}

func (h *handler) progressBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.ProgressBoard(r.Context(), requestContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"learners": board})
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNotifications(r.Context(), requestContext(r), queryBool(r, "unread"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (h *handler) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var body markReadBody
	if !h.decode(w, r, &body) {
		return
	}
	count, err := h.svc.MarkNotificationsRead(r.Context(), requestContext(r), body.IDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": count})
}

func writeSubmit(w http.ResponseWriter, out workflow.SubmitResult) {
	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	created := out.Created
	writeJSON(w, status, resultResponse{ID: out.SubmissionID, Created: &created, Warnings: out.Warnings})
}
