package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
	"assesseez/internal/usecase/workflow"
)

// stubService implements the methods a test needs; the embedded interface
// panics on anything else.
type stubService struct {
	Service

	req        domain.RequestContext
	evidence   workflow.SubmitEvidenceInput
	decisions  []workflow.Decision
	submitErr  error
	decideOut  workflow.DecideResult
	roles      domain.RoleSet
	markedIDs  []string
	completion float64
	ratio      float64
	composed   workflow.ComposeMessageInput
	subject    string
}

func (s *stubService) ResolveRoles(_ context.Context, req domain.RequestContext) (domain.RoleSet, error) {
	s.req = req
	return s.roles, nil
}

func (s *stubService) SubmitEvidence(_ context.Context, req domain.RequestContext, input workflow.SubmitEvidenceInput) (workflow.SubmitResult, error) {
	s.req = req
	s.evidence = input
	if s.submitErr != nil {
		return workflow.SubmitResult{}, s.submitErr
	}
	return workflow.SubmitResult{SubmissionID: "sub-1", Created: true, Warnings: []string{"no assessor"}}, nil
}

func (s *stubService) DecideEvidenceBatch(_ context.Context, _ domain.RequestContext, decisions []workflow.Decision) (workflow.DecideResult, error) {
	s.decisions = decisions
	return s.decideOut, nil
}

func (s *stubService) MarkNotificationsRead(_ context.Context, _ domain.RequestContext, ids []string) (int64, error) {
	s.markedIDs = ids
	return int64(len(ids)), nil
}

func (s *stubService) CompletionPercentage(context.Context, domain.RequestContext, string) (float64, error) {
	return s.completion, nil
}

func (s *stubService) SamplingRatio(context.Context, domain.RequestContext, string, string) (float64, error) {
	return s.ratio, nil
}

func (s *stubService) ComposeMessage(_ context.Context, req domain.RequestContext, input workflow.ComposeMessageInput) (workflow.Result, error) {
	s.req = req
	s.composed = input
	return workflow.Result{ID: "msg-1"}, nil
}

func (s *stubService) OpenThread(_ context.Context, _ domain.RequestContext, subject string) ([]ports.Message, error) {
	s.subject = subject
	return []ports.Message{{ID: "msg-1", Subject: subject}}, nil
}

func newRequest(method string, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(HeaderPerson, "person-1")
	req.Header.Set(HeaderBusiness, "biz-1")
	req.Header.Set(HeaderQualification, "qual-1")
	return req
}

func TestRolesUsesHeaders(t *testing.T) {
	t.Parallel()

	svc := &stubService{roles: domain.NewRoleSet(domain.RoleAssessor, domain.RoleAdmin)}
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodGet, "/v1/roles", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", resp.Code, resp.Body.String())
	}
	if svc.req.PersonID != "person-1" || svc.req.BusinessID != "biz-1" || svc.req.QualificationID != "qual-1" {
		t.Fatalf("request context = %+v", svc.req)
	}
	var body struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(body.Roles) != 2 {
		t.Fatalf("roles = %v, want 2 entries", body.Roles)
	}
}

func TestSubmitEvidenceCreated(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	payload := `{"criterion_id":"ac-1","detail":"observed","files":[{"name":"a.pdf","storage_key":"k/a.pdf","size_bytes":10}]}`
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/evidence", payload))

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 body=%s", resp.Code, resp.Body.String())
	}
	if svc.evidence.CriterionID != "ac-1" || len(svc.evidence.Files) != 1 || svc.evidence.Files[0].StorageKey != "k/a.pdf" {
		t.Fatalf("evidence input = %+v", svc.evidence)
	}
	if !strings.Contains(resp.Body.String(), `"warnings":["no assessor"]`) {
		t.Fatalf("body = %s, want warnings", resp.Body.String())
	}
}

func TestSubmitEvidenceBodyValidation(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/evidence", `{"criterion_id":"  ","files":[{"name":"a.pdf"}]}`))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if _, ok := body.Fields["criterion_id"]; !ok {
		t.Fatalf("fields = %v, want criterion_id", body.Fields)
	}
	if _, ok := body.Fields["storage_key"]; !ok {
		t.Fatalf("fields = %v, want storage_key", body.Fields)
	}
	if svc.evidence.CriterionID != "" {
		t.Fatalf("service was called with %+v", svc.evidence)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	t.Parallel()

	resp := httptest.NewRecorder()
	NewHandler(&stubService{}).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/notifications/read", `{"ids":["n1"],"all":true}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
		kind string
	}{
		{name: "locked", err: domain.Locked("evidence is already accepted"), want: http.StatusLocked, kind: "locked"},
		{name: "not assigned", err: domain.NotAssigned("not your learner"), want: http.StatusForbidden, kind: "not_assigned"},
		{name: "validation", err: domain.Invalid("file", "unsupported file extension .exe"), want: http.StatusUnprocessableEntity, kind: "validation"},
		{name: "not found", err: domain.NotFound("criterion"), want: http.StatusNotFound, kind: "not_found"},
		{name: "precondition", err: domain.Precondition("unit not fully accepted"), want: http.StatusPreconditionFailed, kind: "precondition"},
		{name: "conflict", err: &domain.RoleConflictError{Existing: domain.RoleLearner, Requested: domain.RoleAssessor}, want: http.StatusConflict, kind: "role_conflict"},
		{name: "missing person", err: domain.ErrRequestPersonRequired, want: http.StatusUnauthorized, kind: "unauthenticated"},
		{name: "wrapped internal", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: http.StatusInternalServerError, kind: "internal"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubService{submitErr: testCase.err}
			resp := httptest.NewRecorder()
			NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/evidence", `{"criterion_id":"ac-1"}`))
			if resp.Code != testCase.want {
				t.Fatalf("status = %d, want %d body=%s", resp.Code, testCase.want, resp.Body.String())
			}
			var body errorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if body.Kind != testCase.kind {
				t.Fatalf("kind = %q, want %q", body.Kind, testCase.kind)
			}
		})
	}
}

func TestValidationErrorCarriesField(t *testing.T) {
	t.Parallel()

	svc := &stubService{submitErr: domain.Invalid("file", "file size exceeds the upload limit")}
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/evidence", `{"criterion_id":"ac-1"}`))

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if body.Field != "file" {
		t.Fatalf("field = %q, want file", body.Field)
	}
}

func TestDecideEvidenceBatch(t *testing.T) {
	t.Parallel()

	svc := &stubService{decideOut: workflow.DecideResult{Outcomes: []workflow.DecisionOutcome{{SubmissionID: "s1", Status: domain.EvidenceAccepted, Applied: true}}}}
	payload := `{"decisions":[{"submission_id":"s1","status":"ACCEPTED","feedback":"good"},{"submission_id":"s2","status":"rejected"}]}`
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/evidence/decisions", payload))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", resp.Code, resp.Body.String())
	}
	if len(svc.decisions) != 2 || svc.decisions[0].Feedback != "good" || svc.decisions[1].Status != "rejected" {
		t.Fatalf("decisions = %+v", svc.decisions)
	}

	bad := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(bad, newRequest(http.MethodPost, "/v1/evidence/decisions", `{"decisions":[{"submission_id":"s1","status":"SUBMITTED"}]}`))
	if bad.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for SUBMITTED", bad.Code)
	}
}

func TestLearnerProgress(t *testing.T) {
	t.Parallel()

	svc := &stubService{completion: 25, ratio: 50}
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodGet, "/v1/learners/l-1/progress", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var body map[string]float64
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if body["completion"] != 25 || body["sampling_ratio"] != 50 {
		t.Fatalf("body = %v", body)
	}
}

func TestMarkNotificationsRead(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/notifications/read", `{"ids":["n1","n2"]}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if len(svc.markedIDs) != 2 {
		t.Fatalf("marked ids = %v", svc.markedIDs)
	}
	if !strings.Contains(resp.Body.String(), `"updated":2`) {
		t.Fatalf("body = %s", resp.Body.String())
	}
}

func TestComposeMessage(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	payload := `{"recipient_person_ids":["p-2"],"subject":"Unit 1","body":"Hello","attachment":{"name":"a.pdf","storage_key":"m/a.pdf","size_bytes":3}}`
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/messages", payload))

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 body=%s", resp.Code, resp.Body.String())
	}
	if len(svc.composed.RecipientPersonIDs) != 1 || svc.composed.Attachment == nil || svc.composed.Attachment.StorageKey != "m/a.pdf" {
		t.Fatalf("compose input = %+v", svc.composed)
	}

	resp = httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodPost, "/v1/messages", `{"recipient_person_ids":[],"subject":"x","body":"y"}`))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status without recipients = %d, want 422", resp.Code)
	}
}

func TestOpenThreadReadsSubjectQuery(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	resp := httptest.NewRecorder()
	NewHandler(svc).ServeHTTP(resp, newRequest(http.MethodGet, "/v1/messages/thread?subject=Unit+1", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", resp.Code, resp.Body.String())
	}
	if svc.subject != "Unit 1" {
		t.Fatalf("subject = %q", svc.subject)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	resp := httptest.NewRecorder()
	NewHandler(&stubService{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
}
