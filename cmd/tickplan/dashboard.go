package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dashboardSave bool

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Analyze task health across all projects",
	Long: `Collects active tasks from every project and asks the model for a
task-management health report: distribution, priorities, timeline risks, and
recommendations.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().BoolVarP(&dashboardSave, "save", "s", false, "Save the report as a markdown file")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	svc, err := a.reportService(nil)
	if err != nil {
		return err
	}

	fmt.Println("Collecting tasks from all projects...")
	analysis, err := svc.Dashboard(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(analysis)

	if dashboardSave {
		path, err := svc.SaveMarkdown("TaskDashboard", analysis)
		if err != nil {
			return err
		}
		fmt.Printf("\nSaved to %s\n", path)
	}
	return nil
}
