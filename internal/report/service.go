// Package report turns logged activity and live task state into narrative
// reviews: a daily review and a global task-health dashboard.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jgao/tickplan/internal/dida"
	"github.com/jgao/tickplan/internal/journal"
	"github.com/jgao/tickplan/internal/llm"
	"github.com/jgao/tickplan/internal/prompt"
)

var (
	// ErrEmptyProgress indicates a review without a progress note.
	ErrEmptyProgress = errors.New("progress note must not be empty")
	// ErrNothingToReview indicates there is no task or journal state to
	// review.
	ErrNothingToReview = errors.New("no tasks and no journal entries to review")
	// ErrNoActiveTasks indicates an empty dashboard.
	ErrNoActiveTasks = errors.New("no active tasks to analyze")
)

const maxReviewTasks = 10

// TaskSource is the slice of the task client the report path reads.
type TaskSource interface {
	InboxTasks(ctx context.Context) ([]dida.Task, error)
	Projects(ctx context.Context) ([]dida.Project, error)
	ProjectTasks(ctx context.Context, projectID string) ([]dida.Task, error)
}

// Chatter generates narrative text from prompts.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Journal supplies the day's logged activity.
type Journal interface {
	ForDay(ctx context.Context, day time.Time) ([]journal.Entry, error)
}

// Service produces reviews and dashboards.
type Service struct {
	tasks      TaskSource
	chat       Chatter
	journal    Journal
	reportsDir string
	timezone   *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a report service. journal may be nil when no journal
// store is configured.
func NewService(tasks TaskSource, chat Chatter, jrnl Journal, reportsDir string, timezone *time.Location, logger *slog.Logger) *Service {
	if timezone == nil {
		timezone = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tasks:      tasks,
		chat:       chat,
		journal:    jrnl,
		reportsDir: reportsDir,
		timezone:   timezone,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DailyReview builds the day's review: pending inbox tasks plus journal
// entries plus the operator's own progress note, narrated by the model.
func (s *Service) DailyReview(ctx context.Context, progress string) (string, error) {
	progress = strings.TrimSpace(progress)
	if progress == "" {
		return "", ErrEmptyProgress
	}

	inbox, err := s.tasks.InboxTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("read inbox: %w", err)
	}
	var titles []string
	for _, task := range inbox {
		if task.Completed() {
			continue
		}
		titles = append(titles, task.Title)
		if len(titles) == maxReviewTasks {
			break
		}
	}

	var journalLines []string
	if s.journal != nil {
		entries, err := s.journal.ForDay(ctx, s.now().In(s.timezone))
		if err != nil {
			return "", fmt.Errorf("read journal: %w", err)
		}
		for _, entry := range entries {
			journalLines = append(journalLines,
				fmt.Sprintf("%s %s", entry.CreatedAt.In(s.timezone).Format("15:04"), entry.Text))
		}
	}

	review, err := s.chat.Chat(ctx, llm.ChatRequest{
		System:      prompt.ReviewCoach.System,
		User:        prompt.DailyReview(titles, journalLines, progress),
		Temperature: 0.5,
		MaxTokens:   800,
	})
	if err != nil {
		return "", fmt.Errorf("generate review: %w", err)
	}
	s.logger.Info("daily review generated", "pending_tasks", len(titles), "journal_entries", len(journalLines))
	return review, nil
}

// Dashboard analyzes active tasks across all projects and returns the
// model's health report.
func (s *Service) Dashboard(ctx context.Context) (string, error) {
	snap, err := s.collect(ctx)
	if err != nil {
		return "", err
	}
	if len(snap.Active) == 0 {
		return "", ErrNoActiveTasks
	}

	analysis, err := s.chat.Chat(ctx, llm.ChatRequest{
		System:      prompt.Analyst.System,
		User:        prompt.Dashboard(snap.promptData()),
		Temperature: 0.4,
		MaxTokens:   4000,
	})
	if err != nil {
		return "", fmt.Errorf("generate dashboard analysis: %w", err)
	}
	s.logger.Info("dashboard generated",
		"active_tasks", len(snap.Active), "overdue", snap.Overdue, "projects", len(snap.Projects))
	return analysis, nil
}

// SaveMarkdown writes a report under the reports directory and returns the
// path. File names carry the report kind and the current date.
func (s *Service) SaveMarkdown(kind, content string) (string, error) {
	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.md", kind, s.now().In(s.timezone).Format("2006-01-02"))
	path := filepath.Join(s.reportsDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
