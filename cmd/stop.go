package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
)

var stopComment string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the currently running timer",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopComment, "comment", "", "Append a comment to the event")
}

func runStop(cmd *cobra.Command, args []string) error {
	now := time.Now()

	active, err := app.store.FindActive(now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if active == nil {
		fmt.Fprintln(os.Stderr, "No active timer to stop.")
		os.Exit(1)
	}

	started := active.Timestamp()
	project := activity.Project(active)
	if err := stopEvent(app.store, app.log, active, now, stopComment); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped timer for project %q. Elapsed: %s\n",
		project, formatElapsed(now.Sub(started)))
	return nil
}

func formatElapsed(d time.Duration) string {
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
