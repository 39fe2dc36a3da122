package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var logShow bool

var logCmd = &cobra.Command{
	Use:   "log [text]",
	Short: "Append to or show today's activity journal",
	Long: `Appends a timestamped entry to the local activity journal. The
journal feeds the daily review. Use --show to list today's entries.`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().BoolVar(&logShow, "show", false, "Show today's entries instead of appending")
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	jrnl, err := a.journalStore()
	if err != nil {
		return err
	}
	defer jrnl.Close()

	if logShow {
		entries, err := jrnl.ForDay(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries today.")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("%s  %s\n", entry.CreatedAt.Local().Format("15:04"), entry.Text)
		}
		return nil
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("nothing to log; pass the entry text or use --show")
	}
	entry, err := jrnl.Append(cmd.Context(), text)
	if err != nil {
		return err
	}
	fmt.Printf("Logged at %s\n", entry.CreatedAt.Local().Format("15:04"))
	return nil
}
