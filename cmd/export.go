package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

var (
	exportFormat string
	exportToday  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export events to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, yaml, md")
	exportCmd.Flags().BoolVar(&exportToday, "today", false, "Export only today's events (default: this week)")
}

func runExport(cmd *cobra.Command, args []string) error {
	now := time.Now()

	from, to := timecalc.WeekRange(now)
	if exportToday {
		from, to = timecalc.StartOfDay(now), timecalc.EndOfDay(now)
	}

	events, err := app.store.LoadRange(from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := writeExport(cmd.OutOrStdout(), exportFormat, events); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

func writeExport(w io.Writer, format string, events []*model.Event) error {
	switch format {
	case "json":
		if events == nil {
			events = []*model.Event{}
		}
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		docs := make([]map[string]any, 0, len(events))
		for _, e := range events {
			docs = append(docs, e.ToJSONDict())
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("error encoding YAML: %w", err)
		}
		return enc.Close()
	case "md":
		printList(w, events, time.Local)
	default: // csv
		printCSV(w, events)
	}
	return nil
}

func printCSV(w io.Writer, events []*model.Event) {
	fmt.Fprintln(w, "id,date,project,task,comment,tags,start,end,duration_seconds")
	for _, e := range events {
		start := e.Timestamp()
		endStr := model.FormatTimestamp(e.End())
		if activity.IsRunning(e) {
			endStr = ""
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%g\n",
			csvEscape(idCell(e.ID())),
			start.Format("2006-01-02"),
			csvEscape(activity.Project(e)),
			csvEscape(activity.String(e, activity.KeyTask)),
			csvEscape(activity.String(e, activity.KeyComment)),
			csvEscape(strings.Join(activity.Tags(e), ";")),
			model.FormatTimestamp(start),
			endStr,
			e.Duration().Seconds(),
		)
	}
}

func idCell(id model.ID) string {
	if !id.IsSet() {
		return ""
	}
	return id.String()
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
