package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	planProject  string
	planContext  string
	planNumTasks int
	planDays     int
	planYes      bool
)

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Decompose a goal into scheduled tasks",
	Long: `Asks the model to break a goal into subtasks over a date horizon,
then creates a parent task with one child per subtask in the task service.
Child creation is best-effort: a failed child never aborts its siblings and
every subtask is accounted for in the output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planProject, "project", "p", "", "Project ID to plan into (defaults to the inbox)")
	planCmd.Flags().StringVarP(&planContext, "context", "c", "", "Additional context or constraints for the planner")
	planCmd.Flags().IntVarP(&planNumTasks, "tasks", "n", 5, "Number of subtasks to generate (0 lets the model decide)")
	planCmd.Flags().IntVarP(&planDays, "days", "d", 7, "Horizon length in days")
	planCmd.Flags().BoolVarP(&planYes, "yes", "y", false, "Create tasks without asking for confirmation")
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	goal := strings.TrimSpace(strings.Join(args, " "))
	if goal == "" {
		return fmt.Errorf("goal must not be empty")
	}

	llmClient, err := a.llmClient()
	if err != nil {
		return err
	}

	fmt.Printf("Decomposing %q...\n", goal)
	req, err := llmClient.GeneratePlan(cmd.Context(), goal, planContext, horizon(planDays), planNumTasks)
	if err != nil {
		return err
	}

	loc, err := a.cfg.Dida.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	fmt.Println()
	fmt.Printf("Proposed plan for: %s\n", goal)
	for i, sub := range req.Subtasks {
		// Preview the offset the scheduler will actually use.
		due := now.AddDate(0, 0, req.ClampOffset(sub.DayOffset))
		fmt.Printf("  [%d] %s | %s\n", i+1, due.Format("Jan 02"), sub.Title)
	}

	if !planYes {
		ok, err := confirm("\nCreate these tasks?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	svc, err := a.plannerService()
	if err != nil {
		return err
	}
	result, err := svc.Plan(cmd.Context(), planProject, req)
	if err != nil {
		return err
	}

	fmt.Println()
	if result.ParentTaskID == "" {
		fmt.Println("Plan failed: the parent task could not be created.")
		fmt.Printf("  reason: %s\n", result.Children[0].FailureReason)
		return nil
	}
	fmt.Printf("Parent task created (id %s)\n", result.ParentTaskID)
	for _, child := range result.Children {
		if child.TaskID != "" {
			fmt.Printf("  + %s\n", child.Title)
		} else {
			fmt.Printf("  ! %s: %s\n", child.Title, child.FailureReason)
		}
	}
	fmt.Printf("Created %d of %d subtasks.\n", result.Created(), len(result.Children))
	return nil
}
