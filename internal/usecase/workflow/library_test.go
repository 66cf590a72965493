package workflow

import (
	"context"
	"errors"
	"testing"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

func TestResourceFoldersFollowHeldRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	qualificationID := f.admin.QualificationID

	handbooks, err := f.svc.CreateResourceFolder(ctx, f.admin, ResourceFolderInput{
		Name: "Learner handbooks", VisibleTo: []string{"learner"}, QualificationIDs: []string{qualificationID},
	})
	if err != nil {
		t.Fatalf("CreateResourceFolder() error = %v", err)
	}
	packs, err := f.svc.CreateResourceFolder(ctx, f.admin, ResourceFolderInput{
		Name: "Assessment packs", VisibleTo: []string{"ASSESSOR", "IQA"}, QualificationIDs: []string{qualificationID},
	})
	if err != nil {
		t.Fatalf("CreateResourceFolder() error = %v", err)
	}
	if _, err := f.svc.AddResourceFile(ctx, f.admin, AddResourceFileInput{
		FolderID: handbooks.ID, Title: "Course handbook",
		File: domain.FileRef{Name: "handbook.pdf", StorageKey: "resources/handbook.pdf", SizeBytes: 1024},
	}); err != nil {
		t.Fatalf("AddResourceFile() error = %v", err)
	}

	if _, err := f.svc.CreateResourceFolder(ctx, f.assessor, ResourceFolderInput{
		Name: "Mine", VisibleTo: []string{"ASSESSOR"}, QualificationIDs: []string{qualificationID},
	}); !errors.Is(err, domain.ErrNotAssigned) {
		t.Fatalf("CreateResourceFolder(assessor) error = %v, want ErrNotAssigned", err)
	}
	if _, err := f.svc.CreateResourceFolder(ctx, f.admin, ResourceFolderInput{
		Name: "Admins", VisibleTo: []string{"ADMIN"}, QualificationIDs: []string{qualificationID},
	}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("CreateResourceFolder(admin role) error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.CreateResourceFolder(ctx, f.admin, ResourceFolderInput{
		Name: "Elsewhere", VisibleTo: []string{"LEARNER"}, QualificationIDs: []string{"missing"},
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("CreateResourceFolder(unknown qualification) error = %v, want ErrNotFound", err)
	}

	visible := func(rc domain.RequestContext) []ports.ResourceFolder {
		t.Helper()
		folders, err := f.svc.VisibleResources(ctx, rc)
		if err != nil {
			t.Fatalf("VisibleResources() error = %v", err)
		}
		return folders
	}
	if got := visible(f.learner); len(got) != 1 || got[0].ID != handbooks.ID || len(got[0].Files) != 1 {
		t.Fatalf("learner folders = %#v", got)
	}
	if got := visible(f.iqa); len(got) != 1 || got[0].ID != packs.ID {
		t.Fatalf("iqa folders = %#v", got)
	}
	if got := visible(f.eqa); len(got) != 0 {
		t.Fatalf("eqa folders = %#v, want none", got)
	}
	if got := visible(f.admin); len(got) != 2 {
		t.Fatalf("admin folders = %d, want 2", len(got))
	}

	inactive := false
	if _, err := f.svc.UpdateLearner(ctx, f.admin, UpdateLearnerInput{LearnerID: f.learnerID, IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateLearner() error = %v", err)
	}
	if got := visible(f.learner); len(got) != 0 {
		t.Fatalf("inactive learner folders = %#v, want none", got)
	}

	if _, err := f.svc.UpdateResourceFolder(ctx, f.admin, packs.ID, ResourceFolderInput{
		Name: "Assessment packs", VisibleTo: []string{"EQA"}, QualificationIDs: []string{qualificationID},
	}); err != nil {
		t.Fatalf("UpdateResourceFolder() error = %v", err)
	}
	if got := visible(f.eqa); len(got) != 1 {
		t.Fatalf("eqa folders after update = %d, want 1", len(got))
	}

	if err := f.svc.DeleteResourceFolder(ctx, f.admin, handbooks.ID); err != nil {
		t.Fatalf("DeleteResourceFolder() error = %v", err)
	}
	all, err := f.svc.ListResourceFolders(ctx, f.admin)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListResourceFolders() = %d, %v", len(all), err)
	}
}

func TestLearnerFilesAreManagedByUploader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	upload := LearnerFileInput{
		LearnerID: f.learnerID, Title: "Initial assessment",
		File: domain.FileRef{Name: "initial.pdf", StorageKey: "learner/initial.pdf", SizeBytes: 512},
	}

	for name, rc := range map[string]domain.RequestContext{"learner": f.learner, "eqa": f.eqa} {
		if _, err := f.svc.UploadLearnerFile(ctx, rc, upload); !errors.Is(err, domain.ErrNotAssigned) {
			t.Fatalf("UploadLearnerFile(%s) error = %v, want ErrNotAssigned", name, err)
		}
	}
	created, err := f.svc.UploadLearnerFile(ctx, f.assessor, upload)
	if err != nil {
		t.Fatalf("UploadLearnerFile() error = %v", err)
	}

	files, err := f.svc.ListLearnerFiles(ctx, f.learner, f.learnerID)
	if err != nil || len(files) != 1 || files[0].Title != "Initial assessment" {
		t.Fatalf("ListLearnerFiles() = %#v, %v", files, err)
	}
	if _, err := f.svc.ListLearnerFiles(ctx, f.eqa, f.learnerID); !errors.Is(err, domain.ErrNotAssigned) {
		t.Fatalf("ListLearnerFiles(eqa) error = %v, want ErrNotAssigned", err)
	}

	change := UpdateLearnerFileInput{FileID: created.ID, Title: "Initial assessment (signed)"}
	if _, err := f.svc.UpdateLearnerFile(ctx, f.iqa, change); !errors.Is(err, domain.ErrNotAssigned) {
		t.Fatalf("UpdateLearnerFile(iqa) error = %v, want ErrNotAssigned", err)
	}
	if _, err := f.svc.UpdateLearnerFile(ctx, f.assessor, change); err != nil {
		t.Fatalf("UpdateLearnerFile() error = %v", err)
	}
	if err := f.svc.DeleteLearnerFile(ctx, f.admin, created.ID); !errors.Is(err, domain.ErrNotAssigned) {
		t.Fatalf("DeleteLearnerFile(admin) error = %v, want ErrNotAssigned", err)
	}
	if err := f.svc.DeleteLearnerFile(ctx, f.assessor, created.ID); err != nil {
		t.Fatalf("DeleteLearnerFile() error = %v", err)
	}
	if err := f.svc.DeleteLearnerFile(ctx, f.assessor, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("DeleteLearnerFile(again) error = %v, want ErrNotFound", err)
	}
}

func TestMessagesStayWithinQualificationAndThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recipients, err := f.svc.MessageRecipients(ctx, f.learner)
	if err != nil {
		t.Fatalf("MessageRecipients() error = %v", err)
	}
	names := make([]string, 0, len(recipients))
	for _, member := range recipients {
		names = append(names, member.DisplayName())
	}
	if len(names) != 3 || names[0] != "Ada Admin" || names[1] != "Asa Assessor" || names[2] != "Iqbal IQA" {
		t.Fatalf("learner recipients = %v", names)
	}
	eqaRecipients, err := f.svc.MessageRecipients(ctx, f.eqa)
	if err != nil || len(eqaRecipients) != 1 || eqaRecipients[0].DisplayName() != "Ada Admin" {
		t.Fatalf("eqa recipients = %#v, %v", eqaRecipients, err)
	}

	if _, err := f.svc.ComposeMessage(ctx, f.learner, ComposeMessageInput{
		RecipientPersonIDs: []string{f.eqa.PersonID}, Subject: "Hello", Body: "Hi",
	}); !errors.Is(err, domain.ErrNotAssigned) {
		t.Fatalf("ComposeMessage(to eqa) error = %v, want ErrNotAssigned", err)
	}

	before := len(f.sender.sent)
	question, err := f.svc.ComposeMessage(ctx, f.learner, ComposeMessageInput{
		RecipientPersonIDs: []string{f.assessor.PersonID, f.iqa.PersonID, f.assessor.PersonID},
		Subject:            "Unit 1 question",
		Body:               "When is the observation?",
	})
	if err != nil {
		t.Fatalf("ComposeMessage() error = %v", err)
	}
	if len(question.Warnings) != 0 {
		t.Fatalf("warnings = %v", question.Warnings)
	}
	if got := len(f.sender.sent) - before; got != 2 {
		t.Fatalf("emails sent = %d, want 2", got)
	}
	if f.sender.sent[before].TemplateID != domain.TemplateMessage {
		t.Fatalf("template = %q", f.sender.sent[before].TemplateID)
	}

	if _, err := f.svc.ComposeMessage(ctx, f.assessor, ComposeMessageInput{
		RecipientPersonIDs: []string{f.learner.PersonID},
		Subject:            "Re: Unit 1 question",
		Body:               "Next Tuesday.",
		Attachment:         &domain.FileRef{Name: "plan.pdf", StorageKey: "messages/plan.pdf", SizeBytes: 256},
	}); err != nil {
		t.Fatalf("ComposeMessage(reply) error = %v", err)
	}

	inbox, err := f.svc.Inbox(ctx, f.learner)
	if err != nil {
		t.Fatalf("Inbox() error = %v", err)
	}
	if len(inbox) != 1 || inbox[0].Subject != "Unit 1 question" || inbox[0].Unread != 1 || inbox[0].Latest.Attachment == nil {
		t.Fatalf("learner inbox = %#v", inbox)
	}
	sent, err := f.svc.SentMessages(ctx, f.learner)
	if err != nil || len(sent) != 1 {
		t.Fatalf("SentMessages() = %#v, %v", sent, err)
	}

	if n, err := f.svc.UnreadMessageCount(ctx, f.assessor); err != nil || n != 1 {
		t.Fatalf("UnreadMessageCount(assessor) = %d, %v, want 1", n, err)
	}
	thread, err := f.svc.OpenThread(ctx, f.assessor, "Re: Unit 1 question")
	if err != nil {
		t.Fatalf("OpenThread() error = %v", err)
	}
	if len(thread) != 2 || thread[0].ID != question.ID {
		t.Fatalf("thread = %#v", thread)
	}
	if n, err := f.svc.UnreadMessageCount(ctx, f.assessor); err != nil || n != 0 {
		t.Fatalf("UnreadMessageCount(assessor) after open = %d, %v, want 0", n, err)
	}

	if _, err := f.svc.OpenThread(ctx, f.eqa, "Unit 1 question"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("OpenThread(eqa) error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.ReadMessage(ctx, f.eqa, question.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ReadMessage(eqa) error = %v, want ErrNotFound", err)
	}
	if n, err := f.svc.MarkMessagesRead(ctx, f.iqa, nil); err != nil || n != 1 {
		t.Fatalf("MarkMessagesRead(iqa) = %d, %v, want 1", n, err)
	}
}
