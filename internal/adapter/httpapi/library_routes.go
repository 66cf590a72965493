package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"assesseez/internal/usecase/workflow"
)

type learnerFileBody struct {
	Title       string   `json:"title" validate:"notblank,max=200"`
	Description string   `json:"description"`
	File        fileBody `json:"file"`
}

type composeMessageBody struct {
	RecipientPersonIDs []string  `json:"recipient_person_ids" validate:"required,min=1,dive,notblank"`
	Subject            string    `json:"subject" validate:"notblank,max=200"`
	Body               string    `json:"body" validate:"notblank,max=5000"`
	Attachment         *fileBody `json:"attachment"`
}

type recipientResponse struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (h *handler) visibleResources(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.VisibleResources(r.Context(), requestContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (h *handler) listLearnerFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListLearnerFiles(r.Context(), requestContext(r), chi.URLParam(r, "learnerID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (h *handler) uploadLearnerFile(w http.ResponseWriter, r *http.Request) {
	var body learnerFileBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.svc.UploadLearnerFile(r.Context(), requestContext(r), workflow.LearnerFileInput{
		LearnerID:   chi.URLParam(r, "learnerID"),
		Title:       body.Title,
		Description: body.Description,
		File:        body.File.ref(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resultResponse{ID: out.ID})
}

func (h *handler) messageRecipients(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.MessageRecipients(r.Context(), requestContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]recipientResponse, 0, len(members))
	for _, member := range members {
		out = append(out, recipientResponse{PersonID: member.PersonID, Name: member.DisplayName(), Email: member.Email})
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipients": out})
}

func (h *handler) composeMessage(w http.ResponseWriter, r *http.Request) {
	var body composeMessageBody
	if !h.decode(w, r, &body) {
		return
	}
	input := workflow.ComposeMessageInput{
		RecipientPersonIDs: body.RecipientPersonIDs,
		Subject:            body.Subject,
		Body:               body.Body,
	}
	if body.Attachment != nil {
		file := body.Attachment.ref()
		input.Attachment = &file
	}
	out, err := h.svc.ComposeMessage(r.Context(), requestContext(r), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resultResponse{ID: out.ID, Warnings: out.Warnings})
}

func (h *handler) inbox(w http.ResponseWriter, r *http.Request) {
	threads, err := h.svc.Inbox(r.Context(), requestContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

func (h *handler) sentMessages(w http.ResponseWriter, r *http.Request) {
	threads, err := h.svc.SentMessages(r.Context(), requestContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

func (h *handler) openThread(w http.ResponseWriter, r *http.Request) {
	messages, err := h.svc.OpenThread(r.Context(), requestContext(r), r.URL.Query().Get("subject"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *handler) markMessagesRead(w http.ResponseWriter, r *http.Request) {
	var body markReadBody
	if !h.decode(w, r, &body) {
		return
	}
	count, err := h.svc.MarkMessagesRead(r.Context(), requestContext(r), body.IDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": count})
}
