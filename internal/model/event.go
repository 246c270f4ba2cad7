package model

import (
	"fmt"
	"log/slog"
	"time"
)

// nowFunc is the clock used when an event is created without a timestamp.
var nowFunc = time.Now

// Fields holds the constructor inputs of an Event. Timestamp accepts a
// time.Time, *time.Time or ISO-8601 string; nil means "now". Duration accepts
// a time.Duration or a number of seconds; nil means zero.
type Fields struct {
	ID        ID
	Timestamp any
	Duration  any
	Data      map[string]any
}

// Event is a single tracked activity: an instant, a span and free-form data.
// Events are not safe for concurrent mutation.
type Event struct {
	id        ID
	timestamp time.Time
	duration  time.Duration
	data      map[string]any

	diag *slog.Logger
}

// New builds an Event from f. Normalisation warnings (missing timestamp,
// timestamp without offset) are written to diag; a nil diag drops them.
func New(diag *slog.Logger, f Fields) (*Event, error) {
	e := &Event{id: f.ID, diag: diag}
	if f.Timestamp == nil {
		e.warn(DiagMissingTimestamp, "event created without timestamp, using now")
		e.timestamp = nowFunc().Truncate(time.Millisecond).UTC()
	} else if err := e.SetTimestamp(f.Timestamp); err != nil {
		return nil, err
	}
	if err := e.SetDuration(f.Duration); err != nil {
		return nil, err
	}
	e.SetData(f.Data)
	return e, nil
}

func (e *Event) warn(d Diagnostic, msg string, args ...any) {
	if e.diag == nil {
		return
	}
	e.diag.Warn(msg, append([]any{slog.String("diagnostic", d.String())}, args...)...)
}

// ID returns the identifier; NoID when unset.
func (e *Event) ID() ID { return e.id }

// SetID replaces the identifier.
func (e *Event) SetID(id ID) { e.id = id }

// Timestamp returns the event start in UTC with millisecond precision.
func (e *Event) Timestamp() time.Time { return e.timestamp }

// SetTimestamp normalises and stores v. See ParseTimestamp.
func (e *Event) SetTimestamp(v any) error {
	ts, d, err := ParseTimestamp(v)
	if err != nil {
		return err
	}
	if d == DiagNaiveTimestamp {
		e.warn(d, "timestamp without timezone found, using UTC", slog.Any("timestamp", v))
	}
	e.timestamp = ts
	return nil
}

// Duration returns the event span; zero when unset.
func (e *Event) Duration() time.Duration { return e.duration }

// SetDuration normalises and stores v. See ParseDuration.
func (e *Event) SetDuration(v any) error {
	d, err := ParseDuration(v)
	if err != nil {
		return err
	}
	e.duration = d
	return nil
}

// End returns Timestamp plus Duration.
func (e *Event) End() time.Time { return e.timestamp.Add(e.duration) }

// Data returns the payload. It is never nil; an empty payload is created
// on first access.
func (e *Event) Data() map[string]any {
	if e.data == nil {
		e.data = map[string]any{}
	}
	return e.data
}

// SetData replaces the payload; nil resets it to empty.
func (e *Event) SetData(data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	e.data = data
}

// Equal reports whether both events share timestamp, duration and data.
// The id takes no part in equality.
func (e *Event) Equal(o *Event) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.timestamp.Equal(o.timestamp) &&
		e.duration == o.duration &&
		dataEqual(e.Data(), o.Data())
}

// Before reports whether e starts before o.
func (e *Event) Before(o *Event) bool { return e.timestamp.Before(o.timestamp) }

// Compare orders events by timestamp only.
func (e *Event) Compare(o *Event) int { return e.timestamp.Compare(o.timestamp) }

// EqualValue compares e with an arbitrary value. Values other than Event and
// *Event yield ErrNotComparable rather than false.
func (e *Event) EqualValue(v any) (bool, error) {
	o, err := asEvent(e, v)
	if err != nil {
		return false, err
	}
	return e.Equal(o), nil
}

// LessValue orders e against an arbitrary value by timestamp. Values other
// than Event and *Event yield ErrNotComparable.
func (e *Event) LessValue(v any) (bool, error) {
	o, err := asEvent(e, v)
	if err != nil {
		return false, err
	}
	return e.Before(o), nil
}

func asEvent(e *Event, v any) (*Event, error) {
	switch x := v.(type) {
	case *Event:
		if x != nil {
			return x, nil
		}
	case Event:
		return &x, nil
	}
	return nil, fmt.Errorf("%w between instances of %T and %T", ErrNotComparable, e, v)
}

func (e *Event) String() string {
	return fmt.Sprintf("Event(id=%s, timestamp=%s, duration=%s, data=%v)",
		e.id, FormatTimestamp(e.timestamp), e.duration, e.Data())
}
