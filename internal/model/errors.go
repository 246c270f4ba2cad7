package model

import "errors"

var (
	// ErrInvalidDuration is returned when a duration is neither a time.Duration
	// nor a real number of seconds, or is negative or not finite.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidTimestamp is returned when a timestamp is neither text nor a
	// time.Time, or falls outside years 0001-9999.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrTimestampParse is returned when timestamp text is not ISO-8601.
	ErrTimestampParse = errors.New("cannot parse timestamp")
	// ErrNotComparable is returned when an Event is compared with a non-Event value.
	ErrNotComparable = errors.New("operator not supported")
	// ErrSerialization is returned when event data cannot be represented as JSON.
	ErrSerialization = errors.New("event not serializable")
	// ErrInvalidID is returned when an id is neither an integer nor a string.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidData is returned when a decoded payload is not a JSON object.
	ErrInvalidData = errors.New("invalid data")
)
