package wire

import (
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	obj := NewObject().
		Set("event", String("state_update")).
		Set("count", Integer(3)).
		Set("speed", Number(1.2345)).
		Set("grounded", Boolean(true)).
		Set("tags", Array(String("a"), String("b"))).
		Set("nothing", Null())
	v := Value{Kind: KindObject, Obj: obj}

	out := Decode(Encode(v))
	if out.Kind != KindObject {
		t.Fatalf("expected object, got kind %d", out.Kind)
	}
	if s, _ := out.Obj.StringAt("event"); s != "state_update" {
		t.Fatalf("event = %q", s)
	}
	if n, _ := out.Obj.Float64At("count"); n != 3 {
		t.Fatalf("count = %v", n)
	}
	// 1.2345 renders as 1.234 or 1.235 depending on rounding; either way it
	// must survive within three fractional digits.
	if n, _ := out.Obj.Float64At("speed"); math.Abs(n-1.2345) > 0.001 {
		t.Fatalf("speed = %v", n)
	}
	if b, _ := out.Obj.BoolAt("grounded"); !b {
		t.Fatalf("grounded lost")
	}
	arr, ok := out.Obj.ArrayAt("tags")
	if !ok || len(arr) != 2 || arr[1].Str != "b" {
		t.Fatalf("tags = %+v", arr)
	}
	if n, ok := out.Obj.Get("nothing"); !ok || n.Kind != KindNull {
		t.Fatalf("null lost: %+v", n)
	}
}

func TestEncodeKeyOrderPreserved(t *testing.T) {
	obj := NewObject().Set("z", Integer(1)).Set("a", Integer(2)).Set("m", Integer(3))
	got := Encode(Value{Kind: KindObject, Obj: obj})
	want := `{"z":1,"a":2,"m":3}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestStringEscaping(t *testing.T) {
	cases := []string{
		`plain`,
		`has "quotes"`,
		`back\slash`,
		`both \" mixed`,
	}
	for _, s := range cases {
		out := Decode(Encode(String(s)))
		if out.Kind != KindString || out.Str != s {
			t.Fatalf("round trip of %q gave %q", s, out.Str)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		f     float64
		isInt bool
		want  string
	}{
		{42, true, "42"},
		{-7, true, "-7"},
		{1.5, false, "1.5"},
		{1.2345, false, "1.234"},
		{0.1000, false, "0.1"},
		{2.0, false, "2"},
		{-0.25, false, "-0.25"},
	}
	for _, c := range cases {
		if got := FormatNumber(c.f, c.isInt); got != c.want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", c.f, got, c.want)
		}
	}
}

func TestDecodeNumberKinds(t *testing.T) {
	v := Decode("12")
	if v.Kind != KindNumber || !v.IsInt || v.Num != 12 {
		t.Fatalf("integer decode: %+v", v)
	}
	v = Decode("12.5")
	if v.Kind != KindNumber || v.IsInt || v.Num != 12.5 {
		t.Fatalf("float decode: %+v", v)
	}
}

func TestDecodePermissive(t *testing.T) {
	// Unterminated string: prefix survives, no panic.
	v := Decode(`{"a":"unterminated`)
	if v.Kind != KindObject {
		t.Fatalf("kind = %d", v.Kind)
	}
	if s, _ := v.Obj.StringAt("a"); s != "unterminated" {
		t.Fatalf("a = %q", s)
	}

	// Unmatched brace: the parsed prefix is returned.
	v = Decode(`{"a":1,"b":2`)
	if n, _ := v.Obj.Float64At("b"); n != 2 {
		t.Fatalf("b = %v", n)
	}

	// Garbage decodes to null, not an error.
	if v := Decode("?!"); v.Kind != KindNull {
		t.Fatalf("garbage kind = %d", v.Kind)
	}
	if v := Decode(""); v.Kind != KindNull {
		t.Fatalf("empty kind = %d", v.Kind)
	}
}

func TestScanString(t *testing.T) {
	raw := `{"event":"player_connected","player_id":"srv-42","n":3}`
	if got := ScanString(raw, "event"); got != "player_connected" {
		t.Fatalf("event = %q", got)
	}
	if got := ScanString(raw, "player_id"); got != "srv-42" {
		t.Fatalf("player_id = %q", got)
	}
	if got := ScanString(raw, "missing"); got != "" {
		t.Fatalf("missing = %q", got)
	}
	// Numeric value is not a string.
	if got := ScanString(raw, "n"); got != "" {
		t.Fatalf("n = %q", got)
	}
	// Escaped quote inside value.
	if got := ScanString(`{"name":"a\"b"}`, "name"); got != `a"b` {
		t.Fatalf("escaped = %q", got)
	}
	// Control escapes decode the same as the full parser.
	raw = `{"text":"line1\nline2\ttab"}`
	if got := ScanString(raw, "text"); got != "line1\nline2\ttab" {
		t.Fatalf("escapes = %q", got)
	}
	if dec, _ := Decode(raw).Obj.StringAt("text"); dec != ScanString(raw, "text") {
		t.Fatalf("scanner %q disagrees with parser %q", ScanString(raw, "text"), dec)
	}
}

func TestScanRawNumber(t *testing.T) {
	raw := `{"code":1001,"x":123.456}`
	if got := ScanRawNumber(raw, "code"); got != "1001" {
		t.Fatalf("code = %q", got)
	}
	if got := ScanRawNumber(raw, "x"); got != "123.456" {
		t.Fatalf("x = %q", got)
	}
	if got := ScanRawNumber(raw, "missing"); got != "" {
		t.Fatalf("missing = %q", got)
	}
}

func TestScanObject(t *testing.T) {
	raw := `{"event":"custom_event","content":{"vel":{"x":1},"kin":false}}`
	block := ScanObject(raw, "content")
	want := `{"vel":{"x":1},"kin":false}`
	if block != want {
		t.Fatalf("block = %s", block)
	}
	if got := ScanObject(raw, "missing"); got != "" {
		t.Fatalf("missing = %q", got)
	}
}

func TestScanStringArray(t *testing.T) {
	raw := `{"event":"lobby_list","lobbies":["alpha","beta"]}`
	got := ScanStringArray(raw, "lobbies")
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("lobbies = %v", got)
	}
	// Object entries mean this is not a string array.
	raw = `{"members":[{"player_id":"a"}]}`
	if got := ScanStringArray(raw, "members"); got != nil {
		t.Fatalf("object array gave %v", got)
	}
	if got := ScanStringArray(raw, "missing"); got != nil {
		t.Fatalf("missing gave %v", got)
	}
}

func TestFromFallback(t *testing.T) {
	type opaque struct{ a int }
	v := From(opaque{a: 1})
	if v.Kind != KindString {
		t.Fatalf("fallback kind = %d", v.Kind)
	}
	if v.Str == "" {
		t.Fatalf("fallback produced empty string")
	}
}
