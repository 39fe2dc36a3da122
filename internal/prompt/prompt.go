// Package prompt centralizes persona definitions and prompt assembly so the
// services stay free of template text.
package prompt

import (
	"fmt"
	"strings"
)

// Persona is a distinct assistant personality: a name plus the system
// prompt defining its behavior and tone.
type Persona struct {
	Name        string
	Description string
	System      string
}

// Planner decomposes goals into scheduled subtasks.
var Planner = Persona{
	Name:        "Planner",
	Description: "Project manager that decomposes goals into scheduled subtasks.",
	System: `You are a professional project manager. Decompose the user's goal into specific subtasks with time planning.

RULES:
1. Return valid JSON only.
2. The JSON object must contain a "tasks" key holding a list.
3. Each task must have:
   - "title": task title starting with a verb (e.g. "Install environment")
   - "content": execution suggestions or detailed instructions
   - "day_offset": integer days from today (0=today, 1=tomorrow, ...)
4. Generate 3-7 tasks depending on goal complexity.
5. Tasks must be in execution order.
6. Make tasks actionable and specific.`,
}

// ReviewCoach generates daily reviews from logged progress.
var ReviewCoach = Persona{
	Name:        "Review Coach",
	Description: "Insightful productivity coach for daily reflection.",
	System: "You are an insightful productivity coach who helps users reflect " +
		"on their daily progress and plan for tomorrow.",
}

// Analyst generates the global task-health report.
var Analyst = Persona{
	Name:        "Analyst",
	Description: "Task management expert for global health analysis.",
	System: `You are a highly experienced productivity coach and task management expert.
You analyze task management systems to identify patterns, risks, and opportunities for improvement.

Your analysis should be:
1. DATA-DRIVEN: base observations on the data provided
2. PRACTICAL: focus on actionable insights
3. CONSTRUCTIVE: identify both strengths and areas for improvement
4. SPECIFIC: avoid generic advice
5. STRUCTURED: use clear markdown sections`,
}

// PlannerSystem returns the planning system prompt, optionally pinned to an
// exact task count.
func PlannerSystem(numTasks int) string {
	if numTasks > 0 {
		return Planner.System + fmt.Sprintf("\n7. Generate exactly %d tasks.", numTasks)
	}
	return Planner.System
}

// PlannerUser builds the planning user prompt.
func PlannerUser(goal, context string, horizonDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "My goal is: %s\n", goal)
	if context != "" {
		fmt.Fprintf(&b, "\nAdditional context: %s\n", context)
	}
	if horizonDays > 0 {
		fmt.Fprintf(&b, "\nThe plan must fit within the next %d days (day_offset 0 to %d).\n", horizonDays, horizonDays-1)
	}
	b.WriteString("\nPlease help me break this down into actionable tasks.")
	return b.String()
}

// DailyReview builds the daily review user prompt from pending task titles,
// the day's journal entries, and the operator's progress note.
func DailyReview(taskTitles, journalLines []string, progress string) string {
	var b strings.Builder
	b.WriteString("The user currently has the following tasks pending in their inbox:\n")
	if len(taskTitles) == 0 {
		b.WriteString("(none)\n")
	}
	for _, title := range taskTitles {
		fmt.Fprintf(&b, "- %s\n", title)
	}

	if len(journalLines) > 0 {
		b.WriteString("\nActivity logged today:\n")
		for _, line := range journalLines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	fmt.Fprintf(&b, "\nThe user's description of today's progress:\n%q\n", progress)
	b.WriteString(`
Please act as an insightful review coach and generate a brief daily report.
Requirements:
1. Format in Markdown.
2. Include these sections: [Today's Achievements], [Challenges Encountered], [Suggestions for Tomorrow].
3. Tone should be rational, objective, and encouraging.
4. Keep it concise (3-5 paragraphs total).`)
	return b.String()
}

// DashboardData is the aggregate handed to the dashboard prompt.
type DashboardData struct {
	TotalActive    int
	TotalProjects  int
	Overdue        int
	NearDeadline   int
	PriorityCounts map[string]int
	TopProjects    []string
	TaskLines      []string
}

// Dashboard builds the global task-health analysis prompt.
func Dashboard(d DashboardData) string {
	var b strings.Builder
	b.WriteString("As a productivity and task management expert, analyze this user's task management situation and provide a comprehensive health report.\n\n")
	b.WriteString("TASK DATA SUMMARY:\n")
	fmt.Fprintf(&b, "- Total Active Tasks: %d\n", d.TotalActive)
	fmt.Fprintf(&b, "- Projects: %d\n", d.TotalProjects)
	fmt.Fprintf(&b, "- Overdue Tasks: %d\n", d.Overdue)
	fmt.Fprintf(&b, "- Near Deadline (within 3 days): %d\n", d.NearDeadline)
	if len(d.PriorityCounts) > 0 {
		fmt.Fprintf(&b, "- Priority Distribution: none=%d low=%d medium=%d high=%d\n",
			d.PriorityCounts["none"], d.PriorityCounts["low"], d.PriorityCounts["medium"], d.PriorityCounts["high"])
	}
	if len(d.TopProjects) > 0 {
		fmt.Fprintf(&b, "- Top Projects by Task Count: %s\n", strings.Join(d.TopProjects, ", "))
	}

	b.WriteString("\nTASK LIST:\n")
	for _, line := range d.TaskLines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(`
Please provide a structured analysis with these sections:

1. **OVERVIEW**: overall assessment of task management health.
2. **DISTRIBUTION ANALYSIS**: where are tasks concentrated?
3. **PRIORITY ASSESSMENT**: are high-priority tasks being managed effectively?
4. **TIMELINE HEALTH**: are deadlines realistic? Any time management risks?
5. **ACTIONABLE RECOMMENDATIONS**: 3-5 specific, practical suggestions.

Focus on practical insights and avoid generic advice.`)
	return b.String()
}
