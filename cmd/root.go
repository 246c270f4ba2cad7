package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/config"
	"github.com/Tiliavir/trivial-activity-tracker/internal/logging"
	"github.com/Tiliavir/trivial-activity-tracker/internal/storage"
)

var (
	flagDataDir   string
	flagLogLevel  string
	flagLogFormat string
)

// app carries what every command needs once configuration is loaded.
var app struct {
	cfg   config.Config
	log   *slog.Logger
	store *storage.Store
}

var rootCmd = &cobra.Command{
	Use:   "tat",
	Short: "Trivial Activity Tracker – a minimal CLI activity tracker",
	Long: `tat is a single-binary, file-based command-line activity tracker.
Every activity is stored as an event (timestamp, duration, data) in
human-readable JSON files below ~/.tat/, one file per UTC day.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadApp,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory holding event files (default ~/.tat)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Diagnostics level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Diagnostics format: text, json")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(outlookCmd)
}

// loadApp reads the config file, applies flag overrides and builds the
// diagnostics logger and event store.
func loadApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}

	app.cfg = cfg
	app.log = logging.New(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	app.store = storage.New(cfg.DataDir, app.log)
	app.log.Debug("configuration loaded", slog.String("data_dir", cfg.DataDir))
	return nil
}
