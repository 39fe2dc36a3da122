package report_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jgao/tickplan/internal/dida"
	"github.com/jgao/tickplan/internal/journal"
	"github.com/jgao/tickplan/internal/llm"
	"github.com/jgao/tickplan/internal/report"
)

type TaskSourceMock struct {
	mock.Mock
}

func (m *TaskSourceMock) InboxTasks(ctx context.Context) ([]dida.Task, error) {
	args := m.Called(ctx)
	if tasks, ok := args.Get(0).([]dida.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskSourceMock) Projects(ctx context.Context) ([]dida.Project, error) {
	args := m.Called(ctx)
	if projects, ok := args.Get(0).([]dida.Project); ok {
		return projects, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskSourceMock) ProjectTasks(ctx context.Context, projectID string) ([]dida.Task, error) {
	args := m.Called(ctx, projectID)
	if tasks, ok := args.Get(0).([]dida.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

type ChatterMock struct {
	mock.Mock
	lastRequest llm.ChatRequest
}

func (m *ChatterMock) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	m.lastRequest = req
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type journalStub struct {
	entries []journal.Entry
}

func (j *journalStub) ForDay(ctx context.Context, day time.Time) ([]journal.Entry, error) {
	return j.entries, nil
}

var testClock = func() time.Time {
	return time.Date(2026, 8, 24, 20, 0, 0, 0, time.UTC)
}

func TestDailyReview_RequiresProgressNote(t *testing.T) {
	svc := report.NewService(&TaskSourceMock{}, &ChatterMock{}, nil, t.TempDir(), time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.DailyReview(context.Background(), "  ")
	require.ErrorIs(t, err, report.ErrEmptyProgress)
}

func TestDailyReview_BuildsPromptFromInboxAndJournal(t *testing.T) {
	tasks := &TaskSourceMock{}
	tasks.On("InboxTasks", mock.Anything).Return([]dida.Task{
		{ID: "t-1", Title: "Compile driver", Status: dida.StatusOpen},
		{ID: "t-2", Title: "Already done", Status: dida.StatusCompleted},
		{ID: "t-3", Title: "Load module", Status: dida.StatusOpen},
	}, nil)

	jrnl := &journalStub{entries: []journal.Entry{
		{CreatedAt: time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC), Text: "started compilation"},
	}}

	chat := &ChatterMock{}
	chat.On("Chat", mock.Anything, mock.Anything).Return("# Daily Review\nGood work.", nil)

	svc := report.NewService(tasks, chat, jrnl, t.TempDir(), time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(testClock)
	review, err := svc.DailyReview(context.Background(), "compiled but stuck on loading")
	require.NoError(t, err)
	require.Contains(t, review, "Daily Review")

	user := chat.lastRequest.User
	require.Contains(t, user, "Compile driver")
	require.Contains(t, user, "Load module")
	require.NotContains(t, user, "Already done", "completed tasks stay out of the review")
	require.Contains(t, user, "09:30 started compilation")
	require.Contains(t, user, "compiled but stuck on loading")
}

func TestDashboard_AggregatesAcrossProjects(t *testing.T) {
	tasks := &TaskSourceMock{}
	tasks.On("Projects", mock.Anything).Return([]dida.Project{
		{ID: "p-1", Name: "Work"},
		{ID: "p-2", Name: "Study"},
		{ID: "p-3", Name: "Archive", Closed: true},
	}, nil)
	tasks.On("ProjectTasks", mock.Anything, "p-1").Return([]dida.Task{
		{ID: "t-1", Title: "Overdue report", Status: dida.StatusOpen, Priority: dida.PriorityHigh,
			DueDate: "2026-08-20T00:00:00+00:00"},
		{ID: "t-2", Title: "Due soon", Status: dida.StatusOpen,
			DueDate: "2026-08-26T00:00:00+00:00"},
		{ID: "t-3", Title: "Done", Status: dida.StatusCompleted},
	}, nil)
	tasks.On("ProjectTasks", mock.Anything, "p-2").Return([]dida.Task{
		{ID: "t-4", Title: "Read chapter", Status: dida.StatusOpen},
	}, nil)

	chat := &ChatterMock{}
	chat.On("Chat", mock.Anything, mock.Anything).Return("health report", nil)

	svc := report.NewService(tasks, chat, nil, t.TempDir(), time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(testClock)
	out, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, "health report", out)

	user := chat.lastRequest.User
	require.Contains(t, user, "Total Active Tasks: 3")
	require.Contains(t, user, "Overdue Tasks: 1")
	require.Contains(t, user, "Near Deadline (within 3 days): 1")
	require.Contains(t, user, "[Work] Overdue report")
	require.Contains(t, user, "[Study] Read chapter")
	require.NotContains(t, user, "Done")
	tasks.AssertNotCalled(t, "ProjectTasks", mock.Anything, "p-3")
}

func TestDashboard_SkipsFailingProject(t *testing.T) {
	tasks := &TaskSourceMock{}
	tasks.On("Projects", mock.Anything).Return([]dida.Project{
		{ID: "p-1", Name: "Work"},
		{ID: "p-2", Name: "Broken"},
	}, nil)
	tasks.On("ProjectTasks", mock.Anything, "p-1").Return([]dida.Task{
		{ID: "t-1", Title: "Task", Status: dida.StatusOpen},
	}, nil)
	tasks.On("ProjectTasks", mock.Anything, "p-2").
		Return(nil, &dida.APIError{Kind: dida.KindTransient, Endpoint: "GET /project/p-2/data"})

	chat := &ChatterMock{}
	chat.On("Chat", mock.Anything, mock.Anything).Return("partial report", nil)

	svc := report.NewService(tasks, chat, nil, t.TempDir(), time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(testClock)
	out, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, "partial report", out)
	require.Contains(t, chat.lastRequest.User, "Total Active Tasks: 1")
}

func TestDashboard_NoActiveTasks(t *testing.T) {
	tasks := &TaskSourceMock{}
	tasks.On("Projects", mock.Anything).Return([]dida.Project{}, nil)

	svc := report.NewService(tasks, &ChatterMock{}, nil, t.TempDir(), time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(testClock)
	_, err := svc.Dashboard(context.Background())
	require.ErrorIs(t, err, report.ErrNoActiveTasks)
}

func TestSaveMarkdown(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	svc := report.NewService(&TaskSourceMock{}, &ChatterMock{}, nil, dir, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(testClock)

	path, err := svc.SaveMarkdown("DailyReview", "# Review\ncontent")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "DailyReview_2026-08-24.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "# Review\ncontent", string(data))
}
