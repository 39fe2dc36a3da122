package planner

// Subtask is one proposed step of a plan. DayOffset counts days from the
// horizon start and comes from an untrusted source; the scheduler clamps it.
type Subtask struct {
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	DayOffset int    `json:"day_offset"`
}

// PlanRequest is a goal decomposed into ordered subtasks over a horizon of
// day offsets.
type PlanRequest struct {
	Goal     string    `json:"goal"`
	Horizon  []int     `json:"horizon"`
	Subtasks []Subtask `json:"subtasks"`
}

// ClampOffset pulls a day offset into the horizon bounds. Scheduling and any
// preview of it must agree on the effective offset, so both go through here.
func (r PlanRequest) ClampOffset(offset int) int {
	if len(r.Horizon) == 0 {
		return offset
	}
	min, max := r.Horizon[0], r.Horizon[len(r.Horizon)-1]
	if offset < min {
		return min
	}
	if offset > max {
		return max
	}
	return offset
}

// ChildResult reports the outcome of one subtask creation. Exactly one of
// TaskID and FailureReason is set.
type ChildResult struct {
	Title         string `json:"title"`
	TaskID        string `json:"task_id,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// PlanResult accounts for every input subtask, in input order. It is never
// partially silent: a plan of n subtasks always yields n child entries.
type PlanResult struct {
	ParentTaskID string        `json:"parent_task_id,omitempty"`
	Children     []ChildResult `json:"children"`
}

// Created returns how many children were materialized.
func (r *PlanResult) Created() int {
	n := 0
	for _, c := range r.Children {
		if c.TaskID != "" {
			n++
		}
	}
	return n
}
