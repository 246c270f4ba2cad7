package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

var (
	listToday bool
	listWeek  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded events",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's events")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's events")
}

func runList(cmd *cobra.Command, args []string) error {
	now := time.Now()

	var from, to time.Time
	switch {
	case listWeek:
		from, to = timecalc.WeekRange(now)
	default:
		// Default to today (covers --today and the bare command).
		from = timecalc.StartOfDay(now)
		to = timecalc.EndOfDay(now)
	}

	events, err := app.store.LoadRange(from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	printList(cmd.OutOrStdout(), events, time.Local)
	return nil
}

// printList groups events by calendar day in loc and prints them.
func printList(w io.Writer, events []*model.Event, loc *time.Location) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	var currentDay string
	for _, e := range events {
		start := e.Timestamp().In(loc)
		day := start.Format("2006-01-02")
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}

		endStr := e.End().In(loc).Format("15:04")
		durStr := fmt.Sprintf(" (%s)", timecalc.FormatDuration(e.Duration()))
		if activity.IsRunning(e) {
			endStr = "ongoing"
			durStr = ""
		}

		task := ""
		if t := activity.String(e, activity.KeyTask); t != "" {
			task = "  " + t
		}

		fmt.Fprintf(w, "%s–%s  %s%s%s\n", start.Format("15:04"), endStr, activity.Project(e), task, durStr)
	}
}
