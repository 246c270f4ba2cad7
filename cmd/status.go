package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current timer status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	out := cmd.OutOrStdout()

	active, err := app.store.FindActive(now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if active != nil {
		fmt.Fprintln(out, "Running:")
		fmt.Fprintf(out, "  Project: %s\n", activity.Project(active))
		if task := activity.String(active, activity.KeyTask); task != "" {
			fmt.Fprintf(out, "  Task: %s\n", task)
		}
		fmt.Fprintf(out, "  Since: %s\n", active.Timestamp().Local().Format("15:04"))
		fmt.Fprintf(out, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(now.Sub(active.Timestamp())))
		return nil
	}

	// Idle: show today's total.
	events, err := app.store.LoadRange(timecalc.StartOfDay(now), timecalc.EndOfDay(now))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var total time.Duration
	for _, e := range events {
		total += e.Duration()
	}

	fmt.Fprintln(out, "No active timer.")
	fmt.Fprintf(out, "Today: %s logged.\n", timecalc.FormatDuration(total))
	return nil
}
