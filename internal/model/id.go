package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type idKind uint8

const (
	idUnset idKind = iota
	idInt
	idString
)

// ID is the optional identifier of an Event. The zero value is unset, which
// is distinct from IntID(0) and StringID("").
type ID struct {
	kind idKind
	num  int64
	str  string
}

// NoID is the unset identifier.
var NoID = ID{}

// IntID returns an integer identifier.
func IntID(n int64) ID { return ID{kind: idInt, num: n} }

// StringID returns a string identifier.
func StringID(s string) ID { return ID{kind: idString, str: s} }

// IsSet reports whether the identifier carries a value.
func (id ID) IsSet() bool { return id.kind != idUnset }

// Int returns the integer value and whether the identifier is an integer.
func (id ID) Int() (int64, bool) { return id.num, id.kind == idInt }

// Str returns the string value and whether the identifier is a string.
func (id ID) Str() (string, bool) { return id.str, id.kind == idString }

func (id ID) String() string {
	switch id.kind {
	case idInt:
		return strconv.FormatInt(id.num, 10)
	case idString:
		return id.str
	default:
		return "<none>"
	}
}

// Value returns nil, an int64 or a string.
func (id ID) Value() any {
	switch id.kind {
	case idInt:
		return id.num
	case idString:
		return id.str
	default:
		return nil
	}
}

// IDFromValue converts a decoded JSON value into an ID. nil yields NoID.
// Floats are accepted only when they hold an integral value.
func IDFromValue(v any) (ID, error) {
	switch x := v.(type) {
	case nil:
		return NoID, nil
	case ID:
		return x, nil
	case string:
		return StringID(x), nil
	case int:
		return IntID(int64(x)), nil
	case int32:
		return IntID(int64(x)), nil
	case int64:
		return IntID(x), nil
	case uint32:
		return IntID(int64(x)), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return NoID, fmt.Errorf("%w: %q is not an integer", ErrInvalidID, x.String())
		}
		return IntID(n), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || x >= 1<<63 || x < -(1<<63) {
			return NoID, fmt.Errorf("%w: %v is not an integer", ErrInvalidID, x)
		}
		return IntID(int64(x)), nil
	default:
		return NoID, fmt.Errorf("%w: unsupported type %T", ErrInvalidID, v)
	}
}

// MarshalJSON encodes an unset ID as null.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Value())
}

// UnmarshalJSON accepts null, an integer or a string.
func (id *ID) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	parsed, err := IDFromValue(v)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
