package dida

import "time"

// Task status values on the wire.
const (
	StatusOpen      = 0
	StatusCompleted = 2
)

// Priority values on the wire.
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 3
	PriorityHigh   = 5
)

// didaTimeLayout is the ISO 8601 form the service expects for due dates,
// e.g. "2026-08-24T00:00:00+08:00".
const didaTimeLayout = "2006-01-02T15:04:05Z07:00"

// Task is a task as returned by the service. Unexpected fields in responses
// are ignored; the service payload shape is a versioned contract this client
// conforms to.
type Task struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"projectId"`
	ParentID  string   `json:"parentId,omitempty"`
	Title     string   `json:"title"`
	Content   string   `json:"content,omitempty"`
	Priority  int      `json:"priority,omitempty"`
	Status    int      `json:"status"`
	DueDate   string   `json:"dueDate,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	TimeZone  string   `json:"timeZone,omitempty"`
	IsAllDay  bool     `json:"isAllDay,omitempty"`
}

// Completed reports whether the task is done.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Due parses the task's due date. The zero time is returned when no due
// date is set or the value does not parse.
func (t *Task) Due() time.Time {
	if t.DueDate == "" {
		return time.Time{}
	}
	due, err := time.Parse(didaTimeLayout, t.DueDate)
	if err != nil {
		return time.Time{}
	}
	return due
}

// Project is a task container as returned by the service.
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// projectData is the /project/{id}/data response envelope.
type projectData struct {
	Project Project `json:"project"`
	Tasks   []Task  `json:"tasks"`
}

// TaskDraft describes a task to create.
type TaskDraft struct {
	Title     string
	Content   string
	ProjectID string
	ParentID  string
	DueAt     time.Time
	TimeZone  string
	AllDay    bool
}

// createTaskRequest is the POST /task payload.
type createTaskRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	ProjectID string `json:"projectId"`
	ParentID  string `json:"parentId,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`
	TimeZone  string `json:"timeZone,omitempty"`
	IsAllDay  bool   `json:"isAllDay"`
}

// TaskPatch holds the fields of an update. Nil fields are left unchanged.
type TaskPatch struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	DueDate  *string `json:"dueDate,omitempty"`
	Status   *int    `json:"status,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}
