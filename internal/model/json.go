package model

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// wireEvent is the canonical serialized form.
type wireEvent struct {
	ID        ID             `json:"id"`
	Timestamp string         `json:"timestamp"`
	Duration  float64        `json:"duration"`
	Data      map[string]any `json:"data"`
}

// ToJSONDict returns a shallow copy of the event fields in wire form:
// timestamp as ISO-8601 UTC text and duration as float seconds. id and data
// pass through unchanged.
func (e *Event) ToJSONDict() map[string]any {
	return map[string]any{
		"id":        e.id.Value(),
		"timestamp": FormatTimestamp(e.timestamp),
		"duration":  e.duration.Seconds(),
		"data":      e.Data(),
	}
}

// ToJSONString encodes the event as JSON text. It fails with ErrSerialization
// when data holds values JSON cannot represent.
func (e *Event) ToJSONString() (string, error) {
	b, err := e.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MarshalJSON implements json.Marshaler with the ToJSONDict shape.
func (e *Event) MarshalJSON() ([]byte, error) {
	data := e.Data()
	if err := checkJSON(reflect.ValueOf(data), "data", map[uintptr]bool{}); err != nil {
		return nil, err
	}
	b, err := json.Marshal(wireEvent{
		ID:        e.id,
		Timestamp: FormatTimestamp(e.timestamp),
		Duration:  e.duration.Seconds(),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return b, nil
}

// FromJSONDict rebuilds an Event from the ToJSONDict shape, or from that shape
// after a trip through encoding/json. Inputs go through the same
// normalisation as New.
func FromJSONDict(diag *slog.Logger, m map[string]any) (*Event, error) {
	id, err := IDFromValue(m["id"])
	if err != nil {
		return nil, err
	}
	var data map[string]any
	switch x := m["data"].(type) {
	case nil:
	case map[string]any:
		data = x
	default:
		return nil, fmt.Errorf("%w: expected object, got %T", ErrInvalidData, x)
	}
	return New(diag, Fields{
		ID:        id,
		Timestamp: m["timestamp"],
		Duration:  m["duration"],
		Data:      data,
	})
}

// ParseJSON decodes JSON text into an Event. Numbers are kept as json.Number
// so integer ids and payload values keep their precision.
func ParseJSON(diag *slog.Logger, b []byte) (*Event, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: event is null", ErrInvalidData)
	}
	return FromJSONDict(diag, m)
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// checkJSON walks v and rejects what encoding/json would reject or silently
// accept against the wire contract: non-finite floats, non-string map keys,
// cycles and non-data kinds.
func checkJSON(v reflect.Value, path string, onPath map[uintptr]bool) error {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() != reflect.Interface && v.Kind() != reflect.Pointer &&
		(v.Type().Implements(jsonMarshalerType) || v.Type().Implements(textMarshalerType)) {
		return nil
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return checkJSON(v.Elem(), path, onPath)
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return walkRef(v, path, onPath, func() error { return checkJSON(v.Elem(), path, onPath) })
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s: unsupported value %v", ErrSerialization, path, f)
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: %s: map key type %s is not string", ErrSerialization, path, v.Type().Key())
		}
		if v.IsNil() {
			return nil
		}
		return walkRef(v, path, onPath, func() error {
			iter := v.MapRange()
			for iter.Next() {
				if err := checkJSON(iter.Value(), path+"."+iter.Key().String(), onPath); err != nil {
					return err
				}
			}
			return nil
		})
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return nil
		}
		return walkRef(v, path, onPath, func() error { return checkElems(v, path, onPath) })
	case reflect.Array:
		return checkElems(v, path, onPath)
	case reflect.Complex64, reflect.Complex128, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s: unsupported type %s", ErrSerialization, path, v.Type())
	}
	return nil
}

func checkElems(v reflect.Value, path string, onPath map[uintptr]bool) error {
	for i := 0; i < v.Len(); i++ {
		if err := checkJSON(v.Index(i), fmt.Sprintf("%s[%d]", path, i), onPath); err != nil {
			return err
		}
	}
	return nil
}

func walkRef(v reflect.Value, path string, onPath map[uintptr]bool, next func() error) error {
	ptr := v.Pointer()
	if onPath[ptr] {
		return fmt.Errorf("%w: %s: cycle detected", ErrSerialization, path)
	}
	onPath[ptr] = true
	defer delete(onPath, ptr)
	return next()
}

// maxCanonicalDepth bounds canonical on self-referencing payloads.
const maxCanonicalDepth = 64

// exactInt is the canonical form of an integral number: its decimal digits.
// A distinct type keeps it apart from string payload values.
type exactInt string

// dataEqual compares payloads the way JSON sees them: numbers by value
// regardless of Go type, integers exactly.
func dataEqual(a, b map[string]any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return reflect.DeepEqual(canonical(a, 0), canonical(b, 0))
}

// canonicalFloat keeps non-integral floats as float64. Integral floats are
// exact integers in binary, so they share the exactInt form with Go integers.
func canonicalFloat(f float64) any {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return f
	}
	if f >= math.MinInt64 && f < math.MaxInt64 {
		return exactInt(strconv.FormatInt(int64(f), 10))
	}
	i, _ := new(big.Float).SetFloat64(f).Int(nil)
	return exactInt(i.String())
}

func canonicalNumber(n json.Number) any {
	s := n.String()
	if i, ok := new(big.Int).SetString(s, 10); ok {
		return exactInt(i.String())
	}
	// Decimal or exponent notation: integral values stay exact, the rest
	// compare as the float64 encoding/json would produce.
	if boundedExponent(s) {
		if r, ok := new(big.Rat).SetString(s); ok && r.IsInt() {
			return exactInt(r.Num().String())
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return s
}

// boundedExponent keeps big.Rat away from exponents like 1e999999999.
func boundedExponent(s string) bool {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return true
	}
	e, err := strconv.Atoi(s[i+1:])
	return err == nil && e >= -400 && e <= 400
}

func canonical(v any, depth int) any {
	if depth > maxCanonicalDepth {
		return v
	}
	switch x := v.(type) {
	case nil:
		return nil
	case json.Number:
		return canonicalNumber(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return exactInt(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return exactInt(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return canonicalFloat(rv.Float())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return canonical(rv.Elem().Interface(), depth+1)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = canonical(iter.Value().Interface(), depth+1)
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = canonical(rv.Index(i).Interface(), depth+1)
		}
		return out
	}
	return v
}
