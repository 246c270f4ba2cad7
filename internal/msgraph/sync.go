package msgraph

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/storage"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	Store   *storage.Store
	DryRun  bool
	Project string
	// Timezone applies to Graph times that name no zone of their own.
	Timezone string
	// Out receives one progress line per event.
	Out io.Writer
	// Diag receives normalisation warnings.
	Diag *slog.Logger
}

// graphTimestamp turns a Graph dateTime into a value model.New accepts.
// Graph omits the offset and names the zone separately; when that zone (or
// the fallback) is a known IANA name the wall clock is resolved there.
// Otherwise the raw text is handed on and a missing offset reads as UTC.
func graphTimestamp(dt DateTimeTimeZone, fallbackTZ string) any {
	tz := dt.TimeZone
	if tz == "" {
		tz = fallbackTZ
	}
	if tz == "" {
		return dt.DateTime
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return dt.DateTime
	}
	// Parse accepts Graph's seven fractional digits without spelling them out.
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", dt.DateTime, loc); err == nil {
		return t
	}
	return dt.DateTime
}

// buildComment combines bodyPreview and location into a comment string.
func buildComment(event CalendarEvent) string {
	parts := []string{}
	if event.BodyPreview != "" {
		parts = append(parts, event.BodyPreview)
	}
	if event.Location.DisplayName != "" {
		parts = append(parts, event.Location.DisplayName)
	}
	return strings.Join(parts, "\n")
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.Sensitivity == "private" {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// MapCalendarEvent converts a Graph CalendarEvent into a tat Event whose
// duration spans start to end.
func MapCalendarEvent(event CalendarEvent, timezone, project string, diag *slog.Logger) (*model.Event, error) {
	e, err := model.New(diag, model.Fields{Timestamp: graphTimestamp(event.Start, timezone)})
	if err != nil {
		return nil, fmt.Errorf("parsing start time: %w", err)
	}
	endRaw := graphTimestamp(event.End, timezone)
	end, d, err := model.ParseTimestamp(endRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing end time: %w", err)
	}
	if d == model.DiagNaiveTimestamp && diag != nil {
		diag.Warn("timestamp without timezone found, using UTC",
			slog.String("diagnostic", d.String()), slog.Any("timestamp", endRaw))
	}
	if err := e.SetDuration(end.Sub(e.Timestamp())); err != nil {
		return nil, fmt.Errorf("event %q ends before it starts: %w", event.Subject, err)
	}

	e.SetID(timecalc.NewEventID(e.Timestamp()))
	data := map[string]any{
		activity.KeyProject:    project,
		activity.KeyTask:       event.Subject,
		activity.KeyTags:       []string{activity.SourceOutlook},
		activity.KeySource:     activity.SourceOutlook,
		activity.KeyExternalID: event.ID,
	}
	if c := buildComment(event); c != "" {
		data[activity.KeyComment] = c
	}
	if loc := event.Location.DisplayName; loc != "" {
		data[activity.KeyLocation] = loc
	}
	e.SetData(data)
	return e, nil
}

// findByExternalID searches loaded events for one with the given external_id.
func findByExternalID(events []*model.Event, externalID string) *model.Event {
	for _, e := range events {
		if activity.String(e, activity.KeyExternalID) == externalID {
			return e
		}
	}
	return nil
}

// unchanged reports whether a stored import still matches the calendar.
func unchanged(stored, fresh *model.Event) bool {
	return activity.String(stored, activity.KeyTask) == activity.String(fresh, activity.KeyTask) &&
		stored.Timestamp().Equal(fresh.Timestamp()) &&
		stored.Duration() == fresh.Duration()
}

// SyncEvents processes a slice of Graph events and persists them to storage.
// It prints progress to opts.Out and returns a SyncResult.
func SyncEvents(events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		e, err := MapCalendarEvent(event, opts.Timezone, opts.Project, opts.Diag)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		// Load the day file to check for an existing event by external_id.
		existing, loadErr := opts.Store.LoadDay(e.Timestamp())
		if loadErr != nil {
			fmt.Fprintf(out, "  ! Error loading day for %q: %v\n", event.Subject, loadErr)
			result.Errors++
			continue
		}

		dur := fmt.Sprintf(" (%s)", timecalc.FormatDuration(e.Duration()))
		found := findByExternalID(existing.Events, event.ID)
		if found != nil {
			if unchanged(found, e) {
				fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", event.Subject)
				result.Skipped++
				continue
			}
			// Update: preserve the original ID but update the content.
			e.SetID(found.ID())
			if !opts.DryRun {
				if err := opts.Store.UpdateEvent(e); err != nil {
					fmt.Fprintf(out, "  ! Error updating %q: %v\n", event.Subject, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(out, "  ↑ Updated:  %s%s\n", event.Subject, dur)
			result.Updated++
			continue
		}

		// New event.
		if !opts.DryRun {
			if err := opts.Store.UpdateEvent(e); err != nil {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
				result.Errors++
				continue
			}
		}
		fmt.Fprintf(out, "  ✓ Imported: %s%s\n", event.Subject, dur)
		result.Imported++
	}

	return result, nil
}
