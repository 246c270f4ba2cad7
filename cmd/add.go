package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

var (
	addID        string
	addTimestamp string
	addDuration  string
	addData      string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an event with explicit timestamp, duration and data",
	Long: `Record an arbitrary event.

The timestamp is ISO-8601 text; without an offset it is read as UTC.
Omit it to use the current time. The duration is a number of seconds
or a Go duration such as 1h30m. Data is a JSON object.`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addID, "id", "", "Event id (integer or text); generated when empty")
	addCmd.Flags().StringVar(&addTimestamp, "timestamp", "", "ISO-8601 start time")
	addCmd.Flags().StringVar(&addDuration, "duration", "", "Duration in seconds or as 1h30m")
	addCmd.Flags().StringVar(&addData, "data", "", `JSON object payload, e.g. {"project":"acme"}`)
}

func runAdd(cmd *cobra.Command, args []string) error {
	e, err := buildEvent(app.log, addID, addTimestamp, addDuration, addData)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !e.ID().IsSet() {
		e.SetID(timecalc.NewEventID(e.Timestamp()))
	}

	if err := app.store.UpdateEvent(e); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	s, err := e.ToJSONString()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	return nil
}

// buildEvent turns command-line text into constructor inputs.
func buildEvent(diag *slog.Logger, id, ts, dur, data string) (*model.Event, error) {
	f := model.Fields{ID: parseID(id)}

	if ts != "" {
		f.Timestamp = ts
	}

	if dur = strings.TrimSpace(dur); dur != "" {
		if secs, err := strconv.ParseFloat(dur, 64); err == nil {
			f.Duration = secs
		} else if d, err := time.ParseDuration(dur); err == nil {
			f.Duration = d
		} else {
			// Left as text so the constructor reports it.
			f.Duration = dur
		}
	}

	if strings.TrimSpace(data) != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(data)))
		dec.UseNumber()
		if err := dec.Decode(&f.Data); err != nil {
			return nil, fmt.Errorf("%w: --data must be a JSON object: %v", model.ErrInvalidData, err)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return nil, fmt.Errorf("%w: --data has trailing content after the JSON object", model.ErrInvalidData)
		}
	}

	return model.New(diag, f)
}

func parseID(s string) model.ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.NoID
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return model.IntID(n)
	}
	return model.StringID(s)
}
