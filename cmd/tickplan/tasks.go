package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgao/tickplan/internal/dida"
)

var tasksProject string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and manage tasks",
	RunE:  runTasksList,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

var tasksRmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksRm,
}

func init() {
	tasksCmd.PersistentFlags().StringVarP(&tasksProject, "project", "p", "", "Project ID (defaults to the inbox)")
	tasksCmd.AddCommand(tasksDoneCmd, tasksRmCmd)
}

func runTasksList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	client := a.didaClient()

	var tasks []dida.Task
	if tasksProject != "" {
		tasks, err = client.ProjectTasks(cmd.Context(), tasksProject)
	} else {
		tasks, err = client.InboxTasks(cmd.Context())
	}
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}
	for _, task := range tasks {
		marker := " "
		if task.Completed() {
			marker = "x"
		}
		line := fmt.Sprintf("[%s] %s  %s", marker, task.ID, task.Title)
		if task.DueDate != "" {
			line += fmt.Sprintf(" (due %s)", task.DueDate)
		}
		fmt.Println(line)
	}
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	status := dida.StatusCompleted
	task, err := a.didaClient().UpdateTask(cmd.Context(), args[0], dida.TaskPatch{Status: &status})
	if err != nil {
		return err
	}
	fmt.Printf("Completed: %s\n", task.Title)
	return nil
}

func runTasksRm(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.didaClient().DeleteTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted task %s\n", args[0])
	return nil
}
