package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	reviewNote string
	reviewSave bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Generate a daily review",
	Long: `Reads pending inbox tasks and today's journal entries, combines them
with your progress note, and generates a markdown daily review.`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewNote, "note", "m", "", "Progress note (prompted for when omitted)")
	reviewCmd.Flags().BoolVarP(&reviewSave, "save", "s", false, "Save the review as a markdown file")
}

func runReview(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	note := reviewNote
	if note == "" {
		note, err = readLine("Briefly describe your progress today:\n> ")
		if err != nil {
			return err
		}
	}

	jrnl, err := a.journalStore()
	if err != nil {
		return err
	}
	defer jrnl.Close()

	svc, err := a.reportService(jrnl)
	if err != nil {
		return err
	}

	fmt.Println("Generating daily review...")
	review, err := svc.DailyReview(cmd.Context(), note)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(review)

	if reviewSave {
		path, err := svc.SaveMarkdown("DailyReview", review)
		if err != nil {
			return err
		}
		fmt.Printf("\nSaved to %s\n", path)
	}
	return nil
}
