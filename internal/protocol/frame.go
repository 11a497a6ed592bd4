package protocol

import (
	"strconv"

	"github.com/chronosync/chronosync-go/internal/wire"
)

// Frame wraps one raw inbound envelope. Field access is two-tier: flat
// fields are pulled by scanning the raw text, and a full decode happens
// only when a handler asks for a nested payload. High-rate transform
// traffic stays on the scan path.
type Frame struct {
	Raw   string
	event string
}

// Event returns the envelope discriminator.
func (f *Frame) Event() string { return f.event }

// String extracts a flat string field. Empty means absent.
func (f *Frame) String(key string) string {
	return wire.ScanString(f.Raw, key)
}

// Int extracts a flat integer field.
func (f *Frame) Int(key string) (int64, bool) {
	raw := wire.ScanRawNumber(f.Raw, key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f64, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0, false
		}
		return int64(f64), true
	}
	return n, true
}

// Object fully decodes the nested object under key.
func (f *Frame) Object(key string) (*wire.Object, bool) {
	block := wire.ScanObject(f.Raw, key)
	if block == "" {
		return nil, false
	}
	v := wire.Decode(block)
	if v.Kind != wire.KindObject {
		return nil, false
	}
	return v.Obj, true
}

// Array fully decodes the nested array under key.
func (f *Frame) Array(key string) ([]wire.Value, bool) {
	block := wire.ScanArray(f.Raw, key)
	if block == "" {
		return nil, false
	}
	v := wire.Decode(block)
	if v.Kind != wire.KindArray {
		return nil, false
	}
	return v.Arr, true
}

// StringArray extracts a flat array of strings without a full decode.
func (f *Frame) StringArray(key string) []string {
	return wire.ScanStringArray(f.Raw, key)
}
