package storage_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/trivial-activity-tracker/internal/activity"
	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
	"github.com/Tiliavir/trivial-activity-tracker/internal/storage"
)

func newEvent(t *testing.T, id string, ts time.Time, data map[string]any) *model.Event {
	t.Helper()
	e, err := model.New(nil, model.Fields{ID: model.StringID(id), Timestamp: ts, Data: data})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return e
}

func TestLoadDayNotExist(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	d, err := s.LoadDay(day)
	if err != nil {
		t.Fatalf("LoadDay on missing file: %v", err)
	}
	if d.Date != "2026-02-27" {
		t.Errorf("LoadDay date = %q, want %q", d.Date, "2026-02-27")
	}
	if len(d.Events) != 0 {
		t.Errorf("LoadDay events = %d, want 0", len(d.Events))
	}
}

func TestSaveDayAndLoadDay(t *testing.T) {
	base := t.TempDir()
	s := storage.New(base, nil)
	day := time.Date(2026, 2, 27, 9, 30, 0, 0, time.UTC)

	e := newEvent(t, "test-id-1", day, map[string]any{"project": "ECM", "count": 3})
	if err := e.SetDuration(90); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveDay(day, storage.Day{Events: []*model.Event{e}}); err != nil {
		t.Fatalf("SaveDay: %v", err)
	}

	if _, err := os.Stat(filepath.Join(base, "2026", "02", "27.json")); err != nil {
		t.Fatalf("day file missing: %v", err)
	}

	loaded, err := s.LoadDay(day)
	if err != nil {
		t.Fatalf("LoadDay after save: %v", err)
	}
	if len(loaded.Events) != 1 {
		t.Fatalf("LoadDay events = %d, want 1", len(loaded.Events))
	}
	got := loaded.Events[0]
	if !got.Equal(e) {
		t.Errorf("LoadDay event = %s, want %s", got, e)
	}
	if got.ID() != e.ID() {
		t.Errorf("LoadDay id = %v, want %v", got.ID(), e.ID())
	}
}

func TestDayFilesAreKeyedByUTCDate(t *testing.T) {
	base := t.TempDir()
	s := storage.New(base, nil)
	// 00:30 in UTC+2 is still the previous UTC day.
	ts := time.Date(2026, 2, 28, 0, 30, 0, 0, time.FixedZone("EET", 2*3600))
	if err := s.UpdateEvent(newEvent(t, "e1", ts, nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(base, "2026", "02", "27.json")); err != nil {
		t.Errorf("expected event on UTC day 2026-02-27: %v", err)
	}
}

func TestLoadDayNormalisesStoredTimestamps(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "2026", "02", "27.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	raw := `{"date":"2026-02-27","events":[{"id":1,"timestamp":"2026-02-27T10:00:00.123456","duration":2,"data":{}}]}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	s := storage.New(base, slog.New(slog.NewTextHandler(&buf, nil)))
	d, err := s.LoadDay(time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LoadDay: %v", err)
	}
	want := time.Date(2026, 2, 27, 10, 0, 0, 123_000_000, time.UTC)
	if !d.Events[0].Timestamp().Equal(want) {
		t.Errorf("timestamp = %v, want %v", d.Events[0].Timestamp(), want)
	}
	if !bytes.Contains(buf.Bytes(), []byte("timestamp without timezone")) {
		t.Errorf("expected naive timestamp warning, got %q", buf.String())
	}
}

func TestLoadDayBacksUpCorruptFile(t *testing.T) {
	// Verify that a corrupt JSON file is backed up and returns an error.
	base := t.TempDir()
	s := storage.New(base, nil)
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	// Write corrupt JSON directly to the path.
	path := base + "/2026/02/27.json"
	if err := os.MkdirAll(base+"/2026/02", 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadDay(day)
	if err == nil {
		t.Fatal("expected error for corrupt JSON, got nil")
	}

	// Backup file should exist.
	if _, err2 := os.Stat(path + ".corrupt"); os.IsNotExist(err2) {
		t.Error("expected backup file to exist after corrupt JSON")
	}
}

func TestLoadDayRejectsInvalidEvent(t *testing.T) {
	base := t.TempDir()
	s := storage.New(base, nil)
	path := base + "/2026/02/27.json"
	if err := os.MkdirAll(base+"/2026/02", 0o700); err != nil {
		t.Fatal(err)
	}
	raw := `{"date":"2026-02-27","events":[{"timestamp":"2026-02-27T10:00:00Z","duration":"long"}]}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadDay(time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestSaveDayRejectsUnserializableData(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	e := newEvent(t, "bad", day, map[string]any{"ch": make(chan int)})
	if err := s.SaveDay(day, storage.Day{Events: []*model.Event{e}}); err == nil {
		t.Fatal("expected marshalling error")
	}
}

func TestUpdateEvent(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	day := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)

	e := newEvent(t, "e1", day, map[string]any{"project": "P1"})
	if err := s.UpdateEvent(e); err != nil {
		t.Fatalf("UpdateEvent (insert): %v", err)
	}

	// Update the same event.
	e.Data()[activity.KeyTask] = "updated task"
	if err := s.UpdateEvent(e); err != nil {
		t.Fatalf("UpdateEvent (update): %v", err)
	}

	d, err := s.LoadDay(day)
	if err != nil {
		t.Fatalf("LoadDay: %v", err)
	}
	if len(d.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(d.Events))
	}
	if got := activity.String(d.Events[0], activity.KeyTask); got != "updated task" {
		t.Errorf("task = %q, want %q", got, "updated task")
	}
}

func TestUpdateEventAppendsWithoutID(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	day := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		e, err := model.New(nil, model.Fields{Timestamp: day})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateEvent(e); err != nil {
			t.Fatal(err)
		}
	}
	d, err := s.LoadDay(day)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Events) != 2 {
		t.Errorf("events = %d, want 2", len(d.Events))
	}
}

func TestFindActive(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	now := time.Now()

	// No events, expect nil.
	active, err := s.FindActive(now)
	if err != nil {
		t.Fatal(err)
	}
	if active != nil {
		t.Fatal("expected no active event on empty storage")
	}

	closed := newEvent(t, "closed-1", now.Add(-2*time.Hour), map[string]any{"project": "Old"})
	running := newEvent(t, "active-1", now.Add(-time.Hour), map[string]any{"project": "Test", "status": "running"})
	for _, e := range []*model.Event{closed, running} {
		if err := s.UpdateEvent(e); err != nil {
			t.Fatal(err)
		}
	}

	active, err = s.FindActive(now)
	if err != nil {
		t.Fatal(err)
	}
	if active == nil {
		t.Fatal("expected active event, got nil")
	}
	if active.ID() != model.StringID("active-1") {
		t.Errorf("active ID = %v, want %q", active.ID(), "active-1")
	}
}

func TestLoadRange(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	times := []time.Time{
		time.Date(2026, 2, 25, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 26, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 27, 1, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		if err := s.UpdateEvent(newEvent(t, string(rune('a'+i)), ts, nil)); err != nil {
			t.Fatal(err)
		}
	}

	events, err := s.LoadRange(time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 26, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("LoadRange events = %d, want 2", len(events))
	}
	if !events[0].Before(events[1]) {
		t.Errorf("LoadRange not ordered: %s, %s", events[0], events[1])
	}
}
