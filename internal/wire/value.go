// Package wire implements the restricted JSON subset used by the ChronoSync
// text protocol: a tagged-union value type, a lenient encoder/decoder, and
// field-scan extraction for the hot path.
package wire

import (
	"fmt"
	"math"
	"sort"
)

// Kind discriminates the value variants a wire message can carry.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

// Value is a decoded wire value. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	// IsInt marks a number with no fractional part. Such numbers are
	// rendered without a decimal point.
	IsInt bool
	Bool  bool
	Obj   *Object
	Arr   []Value
}

func Null() Value             { return Value{Kind: KindNull} }
func String(s string) Value   { return Value{Kind: KindString, Str: s} }
func Boolean(b bool) Value    { return Value{Kind: KindBool, Bool: b} }
func Integer(i int64) Value   { return Value{Kind: KindNumber, Num: float64(i), IsInt: true} }
func Array(vs ...Value) Value { return Value{Kind: KindArray, Arr: vs} }

// Number builds a numeric value, tagging whole floats as integers so they
// round-trip the way the protocol expects.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f, IsInt: isWhole(f)}
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// Float64 returns the numeric payload. ok is false for non-numbers.
func (v Value) Float64() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Int64 returns the numeric payload truncated to an integer.
func (v Value) Int64() (int64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return int64(v.Num), true
}

// Object is a string-keyed collection that preserves insertion order, since
// the encoder renders keys in the order they were set.
type Object struct {
	keys []string
	vals map[string]Value
}

func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set inserts or replaces a key. Replacing keeps the original position.
// Returns the object for chaining.
func (o *Object) Set(key string, v Value) *Object {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
	return o
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order. The slice is shared; do not mutate.
func (o *Object) Keys() []string { return o.keys }

// Typed accessors. Each returns ok=false when the key is absent or the
// value has a different kind, so callers can treat absence as "no update".

func (o *Object) StringAt(key string) (string, bool) {
	if o == nil {
		return "", false
	}
	v, ok := o.vals[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

func (o *Object) Float64At(key string) (float64, bool) {
	if o == nil {
		return 0, false
	}
	v, ok := o.vals[key]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

func (o *Object) BoolAt(key string) (bool, bool) {
	if o == nil {
		return false, false
	}
	v, ok := o.vals[key]
	if !ok || v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

func (o *Object) ObjectAt(key string) (*Object, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	if !ok || v.Kind != KindObject || v.Obj == nil {
		return nil, false
	}
	return v.Obj, true
}

func (o *Object) ArrayAt(key string) ([]Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	if !ok || v.Kind != KindArray {
		return nil, false
	}
	return v.Arr, true
}

// From converts a plain Go value into a wire Value. Maps are rendered with
// sorted keys for determinism. Anything unsupported falls back to its
// textual representation wrapped as a string; that fallback is lossy on
// purpose, matching the serializer this protocol grew up with.
func From(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Object:
		return Value{Kind: KindObject, Obj: t}
	case string:
		return String(t)
	case bool:
		return Boolean(t)
	case int:
		return Integer(int64(t))
	case int32:
		return Integer(int64(t))
	case int64:
		return Integer(t)
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case []Value:
		return Value{Kind: KindArray, Arr: t}
	case []any:
		arr := make([]Value, 0, len(t))
		for _, item := range t {
			arr = append(arr, From(item))
		}
		return Value{Kind: KindArray, Arr: arr}
	case []float64:
		arr := make([]Value, 0, len(t))
		for _, f := range t {
			arr = append(arr, Number(f))
		}
		return Value{Kind: KindArray, Arr: arr}
	case []string:
		arr := make([]Value, 0, len(t))
		for _, s := range t {
			arr = append(arr, String(s))
		}
		return Value{Kind: KindArray, Arr: arr}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, From(t[k]))
		}
		return Value{Kind: KindObject, Obj: obj}
	default:
		return String(fmt.Sprint(t))
	}
}
