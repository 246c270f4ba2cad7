package model

import (
	"fmt"
	"strings"
	"time"
)

// Diagnostic is a non-fatal data-quality signal raised while normalising input.
type Diagnostic uint8

const (
	DiagNone Diagnostic = iota
	// DiagMissingTimestamp: no timestamp was given, the current time was used.
	DiagMissingTimestamp
	// DiagNaiveTimestamp: the timestamp carried no offset, UTC was assumed.
	DiagNaiveTimestamp
)

func (d Diagnostic) String() string {
	switch d {
	case DiagMissingTimestamp:
		return "missing_timestamp"
	case DiagNaiveTimestamp:
		return "naive_timestamp"
	default:
		return "none"
	}
}

// Layouts carrying an explicit offset. Parse accepts a fractional second after
// the seconds field even though the layouts do not spell it out.
var zonedLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04Z07:00",
	"20060102T150405Z0700",
	"20060102T150405Z07",
}

// Layouts without an offset; matches are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102T150405",
	"2006-01-02",
}

// ParseTimestamp normalises a time.Time, *time.Time or ISO-8601 string: the
// result is in UTC and floor-truncated to whole milliseconds. The returned
// Diagnostic is DiagNaiveTimestamp when text without an offset was read as UTC.
func ParseTimestamp(v any) (time.Time, Diagnostic, error) {
	var (
		ts   time.Time
		diag = DiagNone
	)
	switch x := v.(type) {
	case time.Time:
		ts = x
	case *time.Time:
		if x == nil {
			return time.Time{}, DiagNone, fmt.Errorf("%w: nil *time.Time", ErrInvalidTimestamp)
		}
		ts = *x
	case string:
		parsed, naive, err := parseISO8601(x)
		if err != nil {
			return time.Time{}, DiagNone, err
		}
		ts = parsed
		if naive {
			diag = DiagNaiveTimestamp
		}
	default:
		return time.Time{}, DiagNone, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimestamp, v)
	}
	ts = ts.Truncate(time.Millisecond).UTC()
	if y := ts.Year(); y < 1 || y > 9999 {
		return time.Time{}, DiagNone, fmt.Errorf("%w: year %d outside 0001-9999", ErrInvalidTimestamp, y)
	}
	return ts, diag, nil
}

// parseISO8601 tries offset-carrying layouts first and falls back to
// zone-less layouts interpreted in UTC.
func parseISO8601(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w %q: not ISO-8601", ErrTimestampParse, s)
}

// FormatTimestamp renders t in UTC with an explicit +00:00 offset. Sub-second
// digits are written as microseconds and omitted when zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}
