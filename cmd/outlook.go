package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/msgraph"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

var (
	outlookSyncFrom    string
	outlookSyncTo      string
	outlookSyncDate    string
	outlookSyncToday   bool
	outlookSyncDryRun  bool
	outlookSyncProject string
	outlookSyncTZ      string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Outlook calendar events into tat events",
	Args:  cobra.NoArgs,
	RunE:  runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncToday, "today", false, "Sync only today (default)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncProject, "project", "", "Project for imported events (default: outlook.default_project)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times, e.g. Europe/Berlin (default: outlook.timezone)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	now := time.Now()
	var from, to time.Time

	switch {
	case outlookSyncDate != "":
		d, err := time.Parse("2006-01-02", outlookSyncDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --date value %q: %v\n", outlookSyncDate, err)
			os.Exit(1)
		}
		from = timecalc.StartOfDay(d)
		to = timecalc.EndOfDay(d)

	case outlookSyncFrom != "" || outlookSyncTo != "":
		if outlookSyncTo != "" && outlookSyncFrom == "" {
			fmt.Fprintln(os.Stderr, "--from is required when --to is specified")
			os.Exit(1)
		}
		var err error
		from, err = time.Parse("2006-01-02", outlookSyncFrom)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --from value %q: %v\n", outlookSyncFrom, err)
			os.Exit(1)
		}
		from = timecalc.StartOfDay(from)

		if outlookSyncTo != "" {
			t, err := time.Parse("2006-01-02", outlookSyncTo)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --to value %q: %v\n", outlookSyncTo, err)
				os.Exit(1)
			}
			to = timecalc.EndOfDay(t)
		} else {
			to = timecalc.EndOfDay(now)
		}

	default:
		// Default: today.
		from = timecalc.StartOfDay(now)
		to = timecalc.EndOfDay(now)
	}

	oc := app.cfg.Outlook
	if oc.TenantID == "" || oc.ClientID == "" {
		fmt.Fprintln(os.Stderr, "outlook.tenant_id and outlook.client_id must be set in the config file")
		os.Exit(1)
	}
	timezone := outlookSyncTZ
	if timezone == "" {
		timezone = oc.Timezone
	}
	project := outlookSyncProject
	if project == "" {
		project = oc.DefaultProject
	}
	out := cmd.OutOrStdout()

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Syncing Outlook events (%s → %s)%s...\n",
		from.Format("2006-01-02"), to.Format("2006-01-02"), dryTag)
	fmt.Fprintln(out)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cache := msgraph.NewTokenCache(filepath.Join(app.cfg.DataDir, "auth"))
	tok, cfg, err := msgraph.GetHTTPClient(ctx, msgraph.AuthOptions{
		TenantID: oc.TenantID,
		ClientID: oc.ClientID,
		Cache:    cache,
		Prompt:   out,
		Log:      app.log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		os.Exit(1)
	}

	client := msgraph.NewClient(ctx, tok, cfg, cache)

	events, err := client.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch calendar events: %v\n", err)
		os.Exit(1)
	}

	opts := msgraph.SyncOptions{
		Store:    app.store,
		DryRun:   outlookSyncDryRun,
		Project:  project,
		Timezone: timezone,
		Out:      out,
		Diag:     app.log,
	}

	result, err := msgraph.SyncEvents(events, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(out, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Fprintf(out, "  %d errors\n", result.Errors)
		os.Exit(2)
	}
	return nil
}
