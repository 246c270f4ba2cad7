package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/storage"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

var (
	startTask    string
	startComment string
	startTags    string
)

var startCmd = &cobra.Command{
	Use:   "start <project>",
	Short: "Start a new activity timer",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&startTask, "task", "", "Task description")
	startCmd.Flags().StringVar(&startComment, "comment", "", "Optional comment")
	startCmd.Flags().StringVar(&startTags, "tags", "", "Comma-separated tags")
}

func runStart(cmd *cobra.Command, args []string) error {
	project := args[0]
	now := time.Now()

	// Check for an existing active timer and auto-stop it.
	active, err := app.store.FindActive(now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if active != nil {
		fmt.Fprintf(os.Stderr, "Warning: auto-stopping active timer for project %q\n", activity.Project(active))
		if err := stopEvent(app.store, app.log, active, now, ""); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	e, err := newRunningEvent(app.log, project, now, startTask, startComment, startTags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := app.store.UpdateEvent(e); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Started timer for project %q at %s\n", project, now.Format("15:04:05"))
	return nil
}

// newRunningEvent builds an open timer event starting at now.
func newRunningEvent(diag *slog.Logger, project string, now time.Time, task, comment, tags string) (*model.Event, error) {
	data := map[string]any{
		activity.KeyProject: project,
		activity.KeyTags:    parseTags(tags),
		activity.KeySource:  activity.SourceManual,
		activity.KeyStatus:  activity.StatusRunning,
	}
	if task != "" {
		data[activity.KeyTask] = task
	}
	if comment != "" {
		data[activity.KeyComment] = comment
	}
	return model.New(diag, model.Fields{
		ID:        timecalc.NewEventID(now),
		Timestamp: now,
		Data:      data,
	})
}

// parseTags splits a comma-separated flag value, dropping empty items.
func parseTags(s string) []string {
	tags := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// stopEvent closes a running event at stopTime. An event running across UTC
// midnight is split so that every stored event stays within one day file.
func stopEvent(store *storage.Store, diag *slog.Logger, e *model.Event, stopTime time.Time, comment string) error {
	activity.AppendComment(e, comment)
	delete(e.Data(), activity.KeyStatus)
	stopTime = stopTime.UTC()

	for !timecalc.SameDay(e.Timestamp(), stopTime) && e.Timestamp().Before(stopTime) {
		// Segment ends at the last millisecond of its day.
		if err := e.SetDuration(timecalc.EndOfDay(e.Timestamp()).Sub(e.Timestamp())); err != nil {
			return err
		}
		if err := store.UpdateEvent(e); err != nil {
			return err
		}
		next := timecalc.StartOfDay(e.Timestamp()).AddDate(0, 0, 1)
		var err error
		e, err = model.New(diag, model.Fields{
			ID:        timecalc.NewEventID(next),
			Timestamp: next,
			Data:      activity.CopyData(e),
		})
		if err != nil {
			return err
		}
	}

	elapsed := stopTime.Sub(e.Timestamp())
	if elapsed < 0 {
		elapsed = 0
	}
	if err := e.SetDuration(elapsed); err != nil {
		return err
	}
	return store.UpdateEvent(e)
}
