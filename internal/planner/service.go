package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jgao/tickplan/internal/dida"
)

var (
	// ErrEmptyGoal indicates a plan without a goal.
	ErrEmptyGoal = errors.New("plan goal must not be empty")
	// ErrInvalidHorizon indicates an empty or unordered horizon.
	ErrInvalidHorizon = errors.New("horizon must be non-empty and strictly increasing")
	// ErrNoSubtasks indicates a plan with nothing to schedule.
	ErrNoSubtasks = errors.New("plan has no subtasks")
)

// TaskCreator is the slice of the task client the scheduler needs.
type TaskCreator interface {
	CreateTask(ctx context.Context, draft dida.TaskDraft) (*dida.Task, error)
}

// Service materializes a PlanRequest as a parent task plus child tasks
// scheduled over the horizon. The parent is confirmed before any child is
// attempted; child creations are best-effort with full accounting.
type Service struct {
	tasks    TaskCreator
	timezone *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a scheduler. timezone controls the due-date wall clock;
// nil means time.Local.
func NewService(tasks TaskCreator, timezone *time.Location, logger *slog.Logger) *Service {
	if timezone == nil {
		timezone = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tasks:    tasks,
		timezone: timezone,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Plan validates the request, creates the parent task, then creates one
// child per subtask in input order. If the parent cannot be created the plan
// is aborted: every child carries the same failure reason and no child
// request is sent. A failed child never aborts its siblings.
func (s *Service) Plan(ctx context.Context, projectID string, req PlanRequest) (*PlanResult, error) {
	if req.Goal == "" {
		return nil, ErrEmptyGoal
	}
	if err := validateHorizon(req.Horizon); err != nil {
		return nil, err
	}
	if len(req.Subtasks) == 0 {
		return nil, ErrNoSubtasks
	}

	max := req.Horizon[len(req.Horizon)-1]
	start := s.dayStart()

	parent, err := s.tasks.CreateTask(ctx, dida.TaskDraft{
		Title:     "[Project] " + req.Goal,
		Content:   "Plan generated from goal: " + req.Goal,
		ProjectID: projectID,
		DueAt:     start.AddDate(0, 0, max),
		TimeZone:  s.timezone.String(),
		AllDay:    true,
	})
	if err != nil {
		s.logger.Error("parent task creation failed", "goal", req.Goal, "error", err)
		reason := fmt.Sprintf("parent task not created: %v", err)
		result := &PlanResult{Children: make([]ChildResult, 0, len(req.Subtasks))}
		for _, sub := range req.Subtasks {
			result.Children = append(result.Children, ChildResult{Title: sub.Title, FailureReason: reason})
		}
		return result, nil
	}

	result := &PlanResult{
		ParentTaskID: parent.ID,
		Children:     make([]ChildResult, 0, len(req.Subtasks)),
	}
	for _, sub := range req.Subtasks {
		offset := req.ClampOffset(sub.DayOffset)
		child, err := s.tasks.CreateTask(ctx, dida.TaskDraft{
			Title:     sub.Title,
			Content:   sub.Content,
			ProjectID: projectID,
			ParentID:  parent.ID,
			DueAt:     start.AddDate(0, 0, offset),
			TimeZone:  s.timezone.String(),
			AllDay:    true,
		})
		if err != nil {
			s.logger.Warn("subtask creation failed", "title", sub.Title, "error", err)
			result.Children = append(result.Children, ChildResult{Title: sub.Title, FailureReason: err.Error()})
			continue
		}
		result.Children = append(result.Children, ChildResult{Title: sub.Title, TaskID: child.ID})
	}

	s.logger.Info("plan materialized",
		"parent_id", parent.ID, "created", result.Created(), "total", len(req.Subtasks))
	return result, nil
}

// dayStart is midnight of today in the scheduler's timezone; day offset 0
// resolves to this date.
func (s *Service) dayStart() time.Time {
	now := s.now().In(s.timezone)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.timezone)
}

func validateHorizon(horizon []int) error {
	if len(horizon) == 0 {
		return ErrInvalidHorizon
	}
	for i := 1; i < len(horizon); i++ {
		if horizon[i] <= horizon[i-1] {
			return ErrInvalidHorizon
		}
	}
	return nil
}
