package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/timecalc"
)

// Store keeps events in one JSON file per UTC day below Base.
type Store struct {
	Base string
	diag *slog.Logger
}

// New returns a Store rooted at base. diag receives normalisation warnings
// raised while events are read back.
func New(base string, diag *slog.Logger) *Store {
	return &Store{Base: base, diag: diag}
}

// Day is the set of events whose timestamps fall on one UTC day.
type Day struct {
	Date   string
	Events []*model.Event
}

// dayFile is the top-level structure stored in each daily JSON file.
type dayFile struct {
	Date   string            `json:"date"`
	Events []json.RawMessage `json:"events"`
}

// dayFilePath returns the path for the given date's JSON file.
func (s *Store) dayFilePath(t time.Time) string {
	t = t.UTC()
	return filepath.Join(s.Base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// LoadDay loads the events for the UTC day containing t. Returns an empty Day if not found.
func (s *Store) LoadDay(t time.Time) (Day, error) {
	date := t.UTC().Format("2006-01-02")
	path := s.dayFilePath(t)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Day{Date: date, Events: []*model.Event{}}, nil
	}
	if err != nil {
		return Day{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df dayFile
	if err := json.Unmarshal(data, &df); err != nil {
		return Day{}, s.quarantine(path, err)
	}
	day := Day{Date: df.Date, Events: make([]*model.Event, 0, len(df.Events))}
	for i, raw := range df.Events {
		e, err := model.ParseJSON(s.diag, raw)
		if err != nil {
			return Day{}, s.quarantine(path, fmt.Errorf("event %d: %w", i, err))
		}
		day.Events = append(day.Events, e)
	}
	return day, nil
}

// quarantine backs up a corrupt file so the next write starts clean.
func (s *Store) quarantine(path string, cause error) error {
	backupPath := path + ".corrupt"
	_ = os.Rename(path, backupPath)
	return fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, cause)
}

// SaveDay atomically writes the events of the UTC day containing t, ordered by timestamp.
func (s *Store) SaveDay(t time.Time, day Day) error {
	path := s.dayFilePath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	events := append([]*model.Event(nil), day.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Before(events[j]) })

	out := struct {
		Date   string         `json:"date"`
		Events []*model.Event `json:"events"`
	}{Date: t.UTC().Format("2006-01-02"), Events: events}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// FindActive searches the last seven UTC days (most recent first) for a
// running event.
func (s *Store) FindActive(now time.Time) (*model.Event, error) {
	// Several days back to handle crash-recovery across midnight.
	for i := 0; i < 7; i++ {
		day, err := s.LoadDay(now.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		for j := len(day.Events) - 1; j >= 0; j-- {
			if activity.IsRunning(day.Events[j]) {
				return day.Events[j], nil
			}
		}
	}
	return nil, nil
}

// UpdateEvent replaces the event with the same id on the day of its
// timestamp, or appends it. Events without an id are always appended.
func (s *Store) UpdateEvent(e *model.Event) error {
	ts := e.Timestamp()
	day, err := s.LoadDay(ts)
	if err != nil {
		return err
	}
	if e.ID().IsSet() {
		for i, existing := range day.Events {
			if existing.ID() == e.ID() {
				day.Events[i] = e
				return s.SaveDay(ts, day)
			}
		}
	}
	day.Events = append(day.Events, e)
	return s.SaveDay(ts, day)
}

// LoadRange loads all events with timestamps in [from, to], ordered by timestamp.
func (s *Store) LoadRange(from, to time.Time) ([]*model.Event, error) {
	var events []*model.Event
	last := timecalc.StartOfDay(to.UTC())
	for d := timecalc.StartOfDay(from.UTC()); !d.After(last); d = d.AddDate(0, 0, 1) {
		day, err := s.LoadDay(d)
		if err != nil {
			return nil, err
		}
		for _, e := range day.Events {
			if ts := e.Timestamp(); !ts.Before(from) && !ts.After(to) {
				events = append(events, e)
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Before(events[j]) })
	return events, nil
}
