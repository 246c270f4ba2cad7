// Package activity names the payload keys tat stores in Event data and reads
// them back with the types the commands expect.
package activity

import (
	"fmt"

	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
)

// Payload keys.
const (
	KeyProject    = "project"
	KeyTask       = "task"
	KeyComment    = "comment"
	KeyTags       = "tags"
	KeySource     = "source"
	KeyStatus     = "status"
	KeyExternalID = "external_id"
	KeyLocation   = "location"
)

const (
	StatusRunning = "running"

	SourceManual  = "manual"
	SourceOutlook = "outlook"
)

// String returns data[key] when it is a string, "" otherwise.
func String(e *model.Event, key string) string {
	s, _ := e.Data()[key].(string)
	return s
}

// Project returns the project of e, or "(none)".
func Project(e *model.Event) string {
	if p := String(e, KeyProject); p != "" {
		return p
	}
	return "(none)"
}

// Tags returns the tag list. Decoded JSON arrays arrive as []any.
func Tags(e *model.Event) []string {
	switch v := e.Data()[KeyTags].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			tags = append(tags, fmt.Sprint(t))
		}
		return tags
	default:
		return nil
	}
}

// IsRunning reports whether e is an open timer.
func IsRunning(e *model.Event) bool {
	return String(e, KeyStatus) == StatusRunning
}

// AppendComment adds comment to the existing comment on a new line.
func AppendComment(e *model.Event, comment string) {
	if comment == "" {
		return
	}
	if prev := String(e, KeyComment); prev != "" {
		comment = prev + "\n" + comment
	}
	e.Data()[KeyComment] = comment
}

// CopyData returns a shallow copy of the payload of e.
func CopyData(e *model.Event) map[string]any {
	out := make(map[string]any, len(e.Data()))
	for k, v := range e.Data() {
		out[k] = v
	}
	return out
}
