package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
	"assesseez/internal/usecase/workflow"
)

const (
	HeaderPerson        = "X-Person-ID"
	HeaderBusiness      = "X-Business-ID"
	HeaderQualification = "X-Qualification-ID"

	maxBodyBytes = 1 << 20
)

// Service is the workflow surface exposed over HTTP.
type Service interface {
	ResolveRoles(ctx context.Context, req domain.RequestContext) (domain.RoleSet, error)
	GetQualificationTree(ctx context.Context, req domain.RequestContext) (workflow.QualificationTree, error)

	SubmitEvidence(ctx context.Context, req domain.RequestContext, input workflow.SubmitEvidenceInput) (workflow.SubmitResult, error)
	DecideEvidenceBatch(ctx context.Context, req domain.RequestContext, decisions []workflow.Decision) (workflow.DecideResult, error)
	EvidenceHistory(ctx context.Context, req domain.RequestContext, learnerID string, criterionID string) ([]workflow.EvidenceEntry, error)

	SubmitWorkbook(ctx context.Context, req domain.RequestContext, input workflow.SubmitWorkbookInput) (workflow.SubmitResult, error)
	DecideWorkbook(ctx context.Context, req domain.RequestContext, decision workflow.Decision) (workflow.DecideResult, error)

	SubmitDocument(ctx context.Context, req domain.RequestContext, input workflow.SubmitDocumentInput) (workflow.SubmitResult, error)
	DecideDocument(ctx context.Context, req domain.RequestContext, input workflow.DecideDocumentInput) (workflow.Result, error)
	RemarkDocument(ctx context.Context, req domain.RequestContext, input workflow.RemarkDocumentInput) (workflow.Result, error)
	ListDocuments(ctx context.Context, req domain.RequestContext, learnerID string) ([]workflow.DocumentEntry, error)

	CanSample(ctx context.Context, req domain.RequestContext, target workflow.SampleTarget) (bool, error)
	RecordSampling(ctx context.Context, req domain.RequestContext, input workflow.RecordSamplingInput) (workflow.SamplingResult, error)
	GiveFeedbackToAssessor(ctx context.Context, req domain.RequestContext, input workflow.AssessorFeedbackInput) (workflow.Result, error)

	CompletionPercentage(ctx context.Context, req domain.RequestContext, learnerID string) (float64, error)
	SamplingRatio(ctx context.Context, req domain.RequestContext, learnerID string, iqaPersonID string) (float64, error)
	ProgressBoard(ctx context.Context, req domain.RequestContext) ([]workflow.LearnerProgress, error)

	ListNotifications(ctx context.Context, req domain.RequestContext, unreadOnly bool) ([]ports.Notification, error)
	MarkNotificationsRead(ctx context.Context, req domain.RequestContext, ids []string) (int64, error)

	VisibleResources(ctx context.Context, req domain.RequestContext) ([]ports.ResourceFolder, error)
	UploadLearnerFile(ctx context.Context, req domain.RequestContext, input workflow.LearnerFileInput) (workflow.Result, error)
	ListLearnerFiles(ctx context.Context, req domain.RequestContext, learnerID string) ([]ports.LearnerFile, error)

	MessageRecipients(ctx context.Context, req domain.RequestContext) ([]ports.Member, error)
	ComposeMessage(ctx context.Context, req domain.RequestContext, input workflow.ComposeMessageInput) (workflow.Result, error)
	Inbox(ctx context.Context, req domain.RequestContext) ([]workflow.ThreadSummary, error)
	SentMessages(ctx context.Context, req domain.RequestContext) ([]workflow.ThreadSummary, error)
	OpenThread(ctx context.Context, req domain.RequestContext, subject string) ([]ports.Message, error)
	MarkMessagesRead(ctx context.Context, req domain.RequestContext, ids []string) (int64, error)
}

type handler struct {
	svc      Service
	validate *bodyValidator
}

// NewHandler routes the JSON API. Caller identity comes from the X-Person-ID,
// X-Business-ID and X-Qualification-ID headers set by the fronting gateway.
func NewHandler(svc Service) http.Handler {
	h := &handler{svc: svc, validate: newBodyValidator()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/roles", h.roles)
		r.Get("/qualification", h.qualificationTree)

		r.Post("/evidence", h.submitEvidence)
		r.Post("/evidence/decisions", h.decideEvidence)
		r.Get("/learners/{learnerID}/criteria/{criterionID}/evidence", h.evidenceHistory)

		r.Post("/workbooks", h.submitWorkbook)
		r.Post("/workbooks/{submissionID}/decision", h.decideWorkbook)

		r.Get("/learners/{learnerID}/documents", h.listDocuments)
		r.Post("/documents", h.submitDocument)
		r.Post("/documents/{submissionID}/decision", h.decideDocument)
		r.Post("/documents/{submissionID}/remark", h.remarkDocument)

		r.Get("/learners/{learnerID}/units/{unitID}/sampling", h.canSample)
		r.Post("/samplings", h.recordSampling)
		r.Post("/assessor-feedback", h.assessorFeedback)

		r.Get("/learners/{learnerID}/progress", h.learnerProgress)
		r.Get("/progress", h.progressBoard)

		r.Get("/notifications", h.listNotifications)
		r.Post("/notifications/read", h.markNotificationsRead)

		r.Get("/resources", h.visibleResources)
		r.Get("/learners/{learnerID}/files", h.listLearnerFiles)
		r.Post("/learners/{learnerID}/files", h.uploadLearnerFile)

		r.Get("/messages/recipients", h.messageRecipients)
		r.Post("/messages", h.composeMessage)
		r.Get("/messages/inbox", h.inbox)
		r.Get("/messages/sent", h.sentMessages)
		r.Get("/messages/thread", h.openThread)
		r.Post("/messages/read", h.markMessagesRead)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithAttrs(r.Context(),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.Info(ctx, "http request",
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func requestContext(r *http.Request) domain.RequestContext {
	return domain.RequestContext{
		PersonID:        r.Header.Get(HeaderPerson),
		BusinessID:      r.Header.Get(HeaderBusiness),
		QualificationID: r.Header.Get(HeaderQualification),
	}.Normalize()
}

// decode reads a JSON body into dst and runs struct validation. It writes the
// error response itself and reports whether the handler should continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if fields := h.validate.Check(dst); fields != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "request body failed validation",
			Kind:   "validation",
			Fields: fields,
		})
		return false
	}
	return true
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
