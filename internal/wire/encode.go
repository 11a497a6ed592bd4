package wire

import (
	"strconv"
	"strings"
)

// Encode renders a value as wire text. Object keys keep their given order,
// floats use at most three fractional digits with a locale-invariant dot,
// and strings escape only backslash and double-quote.
func Encode(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch v.Kind {
	case KindNull:
		sb.WriteString("null")
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(Escape(v.Str))
		sb.WriteByte('"')
	case KindBool:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindNumber:
		sb.WriteString(FormatNumber(v.Num, v.IsInt))
	case KindObject:
		sb.WriteByte('{')
		if v.Obj != nil {
			for i, key := range v.Obj.Keys() {
				if i > 0 {
					sb.WriteByte(',')
				}
				sb.WriteByte('"')
				sb.WriteString(Escape(key))
				sb.WriteString(`":`)
				item, _ := v.Obj.Get(key)
				writeValue(sb, item)
			}
		}
		sb.WriteByte('}')
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.Arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, item)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("null")
	}
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Escape protects backslash and double-quote for embedding in a quoted
// wire string. No other characters are escaped.
func Escape(s string) string {
	return escaper.Replace(s)
}

// FormatNumber renders a number the way the protocol expects: integers
// without a decimal point, floats with up to three fractional digits and
// trailing zeros trimmed.
func FormatNumber(f float64, isInt bool) string {
	if isInt {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
