package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

var (
	reportWeek   bool
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show aggregated time report",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for this week (default)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

// projectTotal is the time spent on one project.
type projectTotal struct {
	Project         string        `json:"project"`
	Duration        time.Duration `json:"-"`
	DurationMinutes int64         `json:"duration_minutes"`
}

// aggregate sums event durations per project, sorted by project name.
// Running timers are left out since their duration is not final.
func aggregate(events []*model.Event) ([]projectTotal, time.Duration) {
	totals := map[string]time.Duration{}
	for _, e := range events {
		if activity.IsRunning(e) {
			continue
		}
		totals[activity.Project(e)] += e.Duration()
	}

	var (
		out   []projectTotal
		grand time.Duration
	)
	for p, d := range totals {
		out = append(out, projectTotal{Project: p, Duration: d, DurationMinutes: int64(d / time.Minute)})
		grand += d
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Project < out[j].Project })
	return out, grand
}

func runReport(cmd *cobra.Command, args []string) error {
	now := time.Now()

	from, to := timecalc.WeekRange(now)
	label := timecalc.ISOWeekLabel(now)

	events, err := app.store.LoadRange(from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := writeReport(cmd.OutOrStdout(), reportFormat, label, events); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

func writeReport(w io.Writer, format, label string, events []*model.Event) error {
	totals, grand := aggregate(events)

	switch format {
	case "csv":
		fmt.Fprintln(w, "project,duration_minutes")
		for _, t := range totals {
			fmt.Fprintf(w, "%s,%d\n", csvEscape(t.Project), t.DurationMinutes)
		}
	case "json":
		if totals == nil {
			totals = []projectTotal{}
		}
		data, err := json.MarshalIndent(struct {
			Week         string         `json:"week"`
			Projects     []projectTotal `json:"projects"`
			TotalMinutes int64          `json:"total_minutes"`
		}{label, totals, int64(grand / time.Minute)}, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	default: // md
		fmt.Fprintf(w, "Week %s\n", label)
		fmt.Fprintln(w, "--------------------------------")
		for _, t := range totals {
			fmt.Fprintf(w, "%-20s%s\n", t.Project, timecalc.FormatDuration(t.Duration))
		}
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-20s%s\n", "Total", timecalc.FormatDuration(grand))
	}
	return nil
}
