package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jgao/tickplan/internal/dida"
	"github.com/jgao/tickplan/internal/prompt"
)

const (
	nearDeadlineWindow = 3 // days
	maxPromptTasks     = 30
)

// ActiveTask is a task annotated with its project name for display and
// prompting.
type ActiveTask struct {
	dida.Task
	ProjectName string
}

// Snapshot aggregates the active tasks across all projects.
type Snapshot struct {
	Projects       []dida.Project
	Active         []ActiveTask
	Overdue        int
	NearDeadline   int
	PriorityCounts map[string]int
	ProjectCounts  map[string]int
}

// collect fetches every project's tasks and aggregates the active ones.
// A single project fetch failing is logged and skipped; the snapshot is
// best-effort, not all-or-nothing.
func (s *Service) collect(ctx context.Context) (*Snapshot, error) {
	projects, err := s.tasks.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	snap := &Snapshot{
		Projects:       projects,
		PriorityCounts: map[string]int{},
		ProjectCounts:  map[string]int{},
	}
	today := s.today()

	for _, proj := range projects {
		if proj.Closed {
			continue
		}
		tasks, err := s.tasks.ProjectTasks(ctx, proj.ID)
		if err != nil {
			s.logger.Warn("skipping project, task fetch failed", "project", proj.Name, "error", err)
			continue
		}
		for _, task := range tasks {
			if task.Completed() {
				continue
			}
			snap.Active = append(snap.Active, ActiveTask{Task: task, ProjectName: proj.Name})
			snap.ProjectCounts[proj.Name]++
			snap.PriorityCounts[priorityLabel(task.Priority)]++

			if due := task.Due(); !due.IsZero() {
				days := int(due.Sub(today).Hours() / 24)
				switch {
				case due.Before(today):
					snap.Overdue++
				case days <= nearDeadlineWindow:
					snap.NearDeadline++
				}
			}
		}
	}
	return snap, nil
}

// promptData shapes the snapshot for the dashboard prompt, capping the task
// list to keep the prompt within budget.
func (snap *Snapshot) promptData() prompt.DashboardData {
	data := prompt.DashboardData{
		TotalActive:    len(snap.Active),
		TotalProjects:  len(snap.Projects),
		Overdue:        snap.Overdue,
		NearDeadline:   snap.NearDeadline,
		PriorityCounts: snap.PriorityCounts,
		TopProjects:    topProjects(snap.ProjectCounts, 3),
	}

	limit := len(snap.Active)
	if limit > maxPromptTasks {
		limit = maxPromptTasks
	}
	for i, task := range snap.Active[:limit] {
		line := fmt.Sprintf("%d. [%s] %s", i+1, task.ProjectName, task.Title)
		if task.DueDate != "" {
			line += fmt.Sprintf(" (Due: %s)", task.DueDate)
		}
		if task.Priority >= dida.PriorityMedium {
			line += " [Priority]"
		}
		data.TaskLines = append(data.TaskLines, line)
	}
	return data
}

func topProjects(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func priorityLabel(priority int) string {
	switch priority {
	case dida.PriorityHigh:
		return "high"
	case dida.PriorityMedium:
		return "medium"
	case dida.PriorityLow:
		return "low"
	default:
		return "none"
	}
}

func (s *Service) today() time.Time {
	now := s.now().In(s.timezone)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.timezone)
}
