package progressconsole

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
	"assesseez/internal/usecase/workflow"
)

const (
	maxShownNotifications = 5
	maxActionLines        = 6
	barWidth              = 20
)

// BoardSource is the slice of the workflow service the console reads from.
type BoardSource interface {
	ProgressBoard(ctx context.Context, req domain.RequestContext) ([]workflow.LearnerProgress, error)
	ListNotifications(ctx context.Context, req domain.RequestContext, unreadOnly bool) ([]ports.Notification, error)
	MarkNotificationsRead(ctx context.Context, req domain.RequestContext, ids []string) (int64, error)
}

type Options struct {
	Request         domain.RequestContext
	Filter          string
	SortBy          string
	RefreshInterval time.Duration
}

type boardModel struct {
	ctx             context.Context
	source          BoardSource
	req             domain.RequestContext
	filter          string
	sortBy          string
	refreshInterval time.Duration

	learners      []workflow.LearnerProgress
	selectedIndex int
	notifications []ports.Notification
	status        string
	actionLog     []string
}

type boardLoadedMsg struct {
	items []workflow.LearnerProgress
	err   error
}

type notificationsLoadedMsg struct {
	items []ports.Notification
	err   error
}

type markedReadMsg struct {
	count int64
	err   error
}

type tickMsg struct{}

func NewBoardModel(ctx context.Context, source BoardSource, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &boardModel{
		ctx:             ctx,
		source:          source,
		req:             options.Request.Normalize(),
		filter:          normalizeFilter(options.Filter),
		sortBy:          normalizeSort(options.SortBy),
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *boardModel) Init() tea.Cmd {
	return tea.Batch(m.loadBoardCmd(), m.loadNotificationsCmd(), m.tickCmd())
}

func (m *boardModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadBoardCmd(), m.loadNotificationsCmd(), m.tickCmd())
	case boardLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.learners = filterLearners(msg.items, m.filter)
		sortLearners(m.learners, m.sortBy)
		if m.selectedIndex >= len(m.learners) {
			m.selectedIndex = len(m.learners) - 1
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if len(m.learners) == 0 {
			m.status = "no learners"
			return m, nil
		}
		m.status = fmt.Sprintf("refreshed, %d learner(s)", len(m.learners))
		return m, nil
	case notificationsLoadedMsg:
		if msg.err != nil {
			m.status = "notifications failed: " + msg.err.Error()
			return m, nil
		}
		m.notifications = msg.items
		return m, nil
	case markedReadMsg:
		if msg.err != nil {
			m.status = "mark read failed: " + msg.err.Error()
			m.appendAction("mark read", "failed", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("marked %d notification(s) read", msg.count)
		m.appendAction("mark read", fmt.Sprintf("%d", msg.count), nil)
		return m, m.loadNotificationsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, tea.Batch(m.loadBoardCmd(), m.loadNotificationsCmd())
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.learners)-1 {
				m.selectedIndex++
			}
			return m, nil
		case "f":
			m.filter = nextFilter(m.filter)
			m.appendAction("filter", m.filter, nil)
			return m, m.loadBoardCmd()
		case "s":
			m.sortBy = nextSort(m.sortBy)
			sortLearners(m.learners, m.sortBy)
			m.appendAction("sort", m.sortBy, nil)
			return m, nil
		case "n":
			return m, m.markReadCmd()
		}
	}
	return m, nil
}

func (m *boardModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Learner Progress"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"person=%s business=%s qualification=%s filter=%s sort=%s refresh=%s",
		m.req.PersonID,
		m.req.BusinessID,
		m.req.QualificationID,
		m.filter,
		m.sortBy,
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Learners"))
	builder.WriteString("\n")
	if len(m.learners) == 0 {
		builder.WriteString(dimStyle.Render("- no learners"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.learners {
			line := fmt.Sprintf("%-24s %s %5.1f%%  sampled %5.1f%%", truncate(item.Name, 24), progressBar(item.Completion), item.Completion, item.SamplingRatio)
			if item.SignedOff {
				line += " " + doneStyle.Render("signed off")
			} else if !item.IsActive {
				line += " " + dimStyle.Render("inactive")
			}
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if selected, ok := m.selectedLearner(); ok {
		builder.WriteString(fmt.Sprintf("Learner: %s\n", selected.LearnerID))
		builder.WriteString(fmt.Sprintf("Email: %s\n", firstNonEmpty(selected.Email, "-")))
		builder.WriteString(fmt.Sprintf("Completion: %.1f%%\n", selected.Completion))
		builder.WriteString(fmt.Sprintf("Sampling ratio: %.1f%%\n", selected.SamplingRatio))
		builder.WriteString("\n")
	} else {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	}

	builder.WriteString(sectionStyle.Render(fmt.Sprintf("Notifications (%d unread)", countUnread(m.notifications))))
	builder.WriteString("\n")
	if len(m.notifications) == 0 {
		builder.WriteString(dimStyle.Render("- none"))
		builder.WriteString("\n")
	} else {
		shown := m.notifications
		if len(shown) > maxShownNotifications {
			shown = shown[:maxShownNotifications]
		}
		for _, item := range shown {
			marker := " "
			if !item.IsRead {
				marker = "*"
			}
			builder.WriteString(fmt.Sprintf("%s %s\n", marker, item.Message))
		}
	}
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	if len(m.actionLog) > 0 {
		builder.WriteString(sectionStyle.Render("Actions"))
		builder.WriteString("\n")
		for _, line := range m.actionLog {
			builder.WriteString("- " + line + "\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: up/k down/j move  g refresh  f filter  s sort  n mark read  q quit"))
	return builder.String()
}

func (m *boardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *boardModel) loadBoardCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.source.ProgressBoard(m.ctx, m.req)
		if err != nil {
			return boardLoadedMsg{err: err}
		}
		return boardLoadedMsg{items: items}
	}
}

func (m *boardModel) loadNotificationsCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.source.ListNotifications(m.ctx, m.req, false)
		if err != nil {
			return notificationsLoadedMsg{err: err}
		}
		return notificationsLoadedMsg{items: items}
	}
}

func (m *boardModel) markReadCmd() tea.Cmd {
	ids := make([]string, 0, len(m.notifications))
	for _, item := range m.notifications {
		if !item.IsRead {
			ids = append(ids, item.ID)
		}
	}
	if len(ids) == 0 {
		m.status = "no unread notifications"
		return nil
	}
	m.status = "marking read..."
	return func() tea.Msg {
		count, err := m.source.MarkNotificationsRead(m.ctx, m.req, ids)
		return markedReadMsg{count: count, err: err}
	}
}

func (m *boardModel) selectedLearner() (workflow.LearnerProgress, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.learners) {
		return workflow.LearnerProgress{}, false
	}
	return m.learners[m.selectedIndex], true
}

func (m *boardModel) appendAction(action string, result string, opErr error) {
	line := fmt.Sprintf("%s %s=%s", time.Now().Format(time.TimeOnly), action, result)
	if opErr != nil {
		line += " err=" + opErr.Error()
		logging.Error(m.ctx, "progress console action failed",
			slog.String("action", action),
			slog.String("error", opErr.Error()),
		)
	}
	m.actionLog = append(m.actionLog, line)
	if len(m.actionLog) > maxActionLines {
		m.actionLog = m.actionLog[len(m.actionLog)-maxActionLines:]
	}
}

var filters = []string{"active", "all", "signed-off", "inactive"}

func normalizeFilter(input string) string {
	value := strings.ToLower(strings.TrimSpace(input))
	for _, candidate := range filters {
		if value == candidate {
			return candidate
		}
	}
	return "active"
}

func nextFilter(current string) string {
	for index, candidate := range filters {
		if candidate == current {
			return filters[(index+1)%len(filters)]
		}
	}
	return filters[0]
}

func filterLearners(items []workflow.LearnerProgress, filter string) []workflow.LearnerProgress {
	out := make([]workflow.LearnerProgress, 0, len(items))
	for _, item := range items {
		switch filter {
		case "active":
			if !item.IsActive || item.SignedOff {
				continue
			}
		case "signed-off":
			if !item.SignedOff {
				continue
			}
		case "inactive":
			if item.IsActive {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func normalizeSort(input string) string {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "completion":
		return "completion"
	case "sampling":
		return "sampling"
	default:
		return "name"
	}
}

func nextSort(current string) string {
	switch current {
	case "name":
		return "completion"
	case "completion":
		return "sampling"
	default:
		return "name"
	}
}

// sortLearners orders by the chosen key, lowest completion or sampling first
// so the learners needing attention lead the board.
func sortLearners(items []workflow.LearnerProgress, sortBy string) {
	sort.SliceStable(items, func(i, j int) bool {
		switch sortBy {
		case "completion":
			if items[i].Completion != items[j].Completion {
				return items[i].Completion < items[j].Completion
			}
		case "sampling":
			if items[i].SamplingRatio != items[j].SamplingRatio {
				return items[i].SamplingRatio < items[j].SamplingRatio
			}
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

func progressBar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * barWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func countUnread(items []ports.Notification) int {
	count := 0
	for _, item := range items {
		if !item.IsRead {
			count++
		}
	}
	return count
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "~"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
