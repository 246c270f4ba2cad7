package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ParseDuration normalises a time.Duration or a real number of seconds.
// nil yields zero.
func ParseDuration(v any) (time.Duration, error) {
	var secs float64
	switch x := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		if x < 0 {
			return 0, fmt.Errorf("%w: negative span %s", ErrInvalidDuration, x)
		}
		return x, nil
	case int:
		secs = float64(x)
	case int8:
		secs = float64(x)
	case int16:
		secs = float64(x)
	case int32:
		secs = float64(x)
	case int64:
		secs = float64(x)
	case uint:
		secs = float64(x)
	case uint8:
		secs = float64(x)
	case uint16:
		secs = float64(x)
	case uint32:
		secs = float64(x)
	case uint64:
		secs = float64(x)
	case float32:
		secs = float64(x)
	case float64:
		secs = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidDuration, x.String())
		}
		secs = f
	default:
		return 0, fmt.Errorf("%w: couldn't parse duration of invalid type %T", ErrInvalidDuration, v)
	}
	return secondsToDuration(secs)
}

func secondsToDuration(secs float64) (time.Duration, error) {
	switch {
	case math.IsNaN(secs) || math.IsInf(secs, 0):
		return 0, fmt.Errorf("%w: %v seconds is not finite", ErrInvalidDuration, secs)
	case secs < 0:
		return 0, fmt.Errorf("%w: negative span %v seconds", ErrInvalidDuration, secs)
	}
	// 1<<63 is exact in float64; anything at or above it overflows int64.
	ns := math.Round(secs * float64(time.Second))
	if ns >= 1<<63 {
		return 0, fmt.Errorf("%w: %v seconds out of range", ErrInvalidDuration, secs)
	}
	return time.Duration(ns), nil
}
