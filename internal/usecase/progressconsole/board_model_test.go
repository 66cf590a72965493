package progressconsole

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
	"assesseez/internal/usecase/workflow"
)

type fakeSource struct {
	board         []workflow.LearnerProgress
	notifications []ports.Notification
	boardErr      error
	markedIDs     []string
}

func (f *fakeSource) ProgressBoard(context.Context, domain.RequestContext) ([]workflow.LearnerProgress, error) {
	return f.board, f.boardErr
}

func (f *fakeSource) ListNotifications(context.Context, domain.RequestContext, bool) ([]ports.Notification, error) {
	return f.notifications, nil
}

func (f *fakeSource) MarkNotificationsRead(_ context.Context, _ domain.RequestContext, ids []string) (int64, error) {
	f.markedIDs = append(f.markedIDs, ids...)
	return int64(len(ids)), nil
}

func sampleBoard() []workflow.LearnerProgress {
	return []workflow.LearnerProgress{
		{LearnerID: "l1", Name: "Zoe", Completion: 80, IsActive: true},
		{LearnerID: "l2", Name: "adam", Completion: 20, SamplingRatio: 50, IsActive: true},
		{LearnerID: "l3", Name: "Mia", Completion: 100, IsActive: true, SignedOff: true},
		{LearnerID: "l4", Name: "Ben", IsActive: false},
	}
}

func TestFilterLearners(t *testing.T) {
	testCases := []struct {
		filter string
		want   []string
	}{
		{filter: "active", want: []string{"l1", "l2"}},
		{filter: "all", want: []string{"l1", "l2", "l3", "l4"}},
		{filter: "signed-off", want: []string{"l3"}},
		{filter: "inactive", want: []string{"l4"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.filter, func(t *testing.T) {
			got := filterLearners(sampleBoard(), testCase.filter)
			ids := make([]string, 0, len(got))
			for _, item := range got {
				ids = append(ids, item.LearnerID)
			}
			if strings.Join(ids, ",") != strings.Join(testCase.want, ",") {
				t.Fatalf("filterLearners(%s) = %v, want %v", testCase.filter, ids, testCase.want)
			}
		})
	}
}

func TestSortLearners(t *testing.T) {
	items := filterLearners(sampleBoard(), "active")
	sortLearners(items, "name")
	if items[0].Name != "adam" {
		t.Fatalf("sort by name first = %q, want adam", items[0].Name)
	}
	sortLearners(items, "completion")
	if items[0].LearnerID != "l2" {
		t.Fatalf("sort by completion first = %q, want l2", items[0].LearnerID)
	}
	sortLearners(items, "sampling")
	if items[0].LearnerID != "l1" {
		t.Fatalf("sort by sampling first = %q, want l1", items[0].LearnerID)
	}
}

func TestNormalizeAndCycle(t *testing.T) {
	if got := normalizeFilter(" ALL "); got != "all" {
		t.Fatalf("normalizeFilter(ALL) = %q", got)
	}
	if got := normalizeFilter("bogus"); got != "active" {
		t.Fatalf("normalizeFilter(bogus) = %q", got)
	}
	if got := nextFilter("inactive"); got != "active" {
		t.Fatalf("nextFilter(inactive) = %q", got)
	}
	if got := nextSort("sampling"); got != "name" {
		t.Fatalf("nextSort(sampling) = %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50); got != "["+strings.Repeat("#", 10)+strings.Repeat(".", 10)+"]" {
		t.Fatalf("progressBar(50) = %q", got)
	}
	if got := progressBar(150); !strings.Contains(got, strings.Repeat("#", barWidth)) {
		t.Fatalf("progressBar(150) = %q", got)
	}
}

func TestBoardModelLoadsAndRenders(t *testing.T) {
	source := &fakeSource{
		board: sampleBoard(),
		notifications: []ports.Notification{
			{ID: "n1", Message: "Lena submitted evidence"},
			{ID: "n2", Message: "old", IsRead: true},
		},
	}
	model := NewBoardModel(context.Background(), source, Options{}).(*boardModel)

	updated, _ := model.Update(model.loadBoardCmd()())
	model = updated.(*boardModel)
	updated, _ = model.Update(model.loadNotificationsCmd()())
	model = updated.(*boardModel)

	if len(model.learners) != 2 {
		t.Fatalf("len(learners) = %d, want 2", len(model.learners))
	}
	view := model.View()
	if !strings.Contains(view, "adam") || !strings.Contains(view, "Notifications (1 unread)") {
		t.Fatalf("View() missing content:\n%s", view)
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	model = updated.(*boardModel)
	if selected, ok := model.selectedLearner(); !ok || selected.LearnerID != "l1" {
		t.Fatalf("selectedLearner() = %+v, %v", selected, ok)
	}

	cmd := model.markReadCmd()
	if cmd == nil {
		t.Fatalf("markReadCmd() = nil, want command")
	}
	updated, _ = model.Update(cmd())
	model = updated.(*boardModel)
	if len(source.markedIDs) != 1 || source.markedIDs[0] != "n1" {
		t.Fatalf("marked ids = %v, want [n1]", source.markedIDs)
	}
	if !strings.Contains(model.status, "marked 1") {
		t.Fatalf("status = %q", model.status)
	}
}

func TestBoardModelKeepsRowsOnRefreshError(t *testing.T) {
	source := &fakeSource{board: sampleBoard()}
	model := NewBoardModel(context.Background(), source, Options{Filter: "all"}).(*boardModel)
	updated, _ := model.Update(model.loadBoardCmd()())
	model = updated.(*boardModel)

	source.boardErr = errors.New("database is locked")
	updated, _ = model.Update(model.loadBoardCmd()())
	model = updated.(*boardModel)
	if len(model.learners) != 4 {
		t.Fatalf("len(learners) = %d, want 4", len(model.learners))
	}
	if !strings.Contains(model.status, "database is locked") {
		t.Fatalf("status = %q", model.status)
	}
}
