package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgao/tickplan/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "tickplan",
	Short:         "AI project manager for TickTick (Dida365)",
	Long:          `tickplan glues the TickTick (Dida365) task API to an LLM: it decomposes goals into scheduled task hierarchies and turns logged activity into daily reviews.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(authCmd, planCmd, reviewCmd, dashboardCmd, logCmd, tasksCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newApp loads configuration and sets up logging for one command run.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return &app{cfg: cfg, logger: logger}, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
