package wire

import "strings"

// Field-scan extraction: locates `"key":` in raw text and pulls the value
// span without a full parse. This is the hot path for high-rate transform
// frames, where decoding the whole envelope per message is wasteful.
//
// Known fragility, kept deliberately: the scan can be fooled when a string
// value contains a substring matching another key's quoted pattern, or when
// the same key repeats at different nesting depths. The protocol does not
// produce such frames today; a streaming tokenizer is the upgrade path if
// it ever does.

func findKey(raw, key string) int {
	idx := strings.Index(raw, `"`+key+`":`)
	if idx < 0 {
		return -1
	}
	return idx + len(key) + 3
}

// ScanString extracts the quoted string value for key. Returns "" if the
// key is missing or the value is not a string. Escape sequences decode
// exactly as the full parser decodes them.
func ScanString(raw, key string) string {
	pos := findKey(raw, key)
	if pos < 0 {
		return ""
	}
	for pos < len(raw) && (raw[pos] == ' ' || raw[pos] == '\t') {
		pos++
	}
	if pos >= len(raw) || raw[pos] != '"' {
		return ""
	}
	pos++
	var sb strings.Builder
	for pos < len(raw) {
		c := raw[pos]
		if c == '\\' && pos+1 < len(raw) {
			sb.WriteByte(unescape(raw[pos+1]))
			pos += 2
			continue
		}
		if c == '"' {
			return sb.String()
		}
		sb.WriteByte(c)
		pos++
	}
	return ""
}

// ScanRawNumber extracts the raw numeric span for key, trimmed, up to the
// next comma or closing brace/bracket. Returns "" when the key is missing.
func ScanRawNumber(raw, key string) string {
	pos := findKey(raw, key)
	if pos < 0 {
		return ""
	}
	end := pos
	for end < len(raw) {
		c := raw[end]
		if c == ',' || c == '}' || c == ']' {
			break
		}
		end++
	}
	return strings.TrimSpace(raw[pos:end])
}

// ScanObject extracts the brace-matched object block for key, including the
// braces. Returns "" when the key is missing or no object follows it.
func ScanObject(raw, key string) string {
	pos := findKey(raw, key)
	if pos < 0 {
		return ""
	}
	start := strings.IndexByte(raw[pos:], '{')
	if start < 0 {
		return ""
	}
	start += pos
	depth := 0
	inString := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

// ScanArray extracts the bracket-matched array block for key, including the
// brackets. Returns "" when the key is missing or no array follows it.
func ScanArray(raw, key string) string {
	pos := findKey(raw, key)
	if pos < 0 {
		return ""
	}
	start := strings.IndexByte(raw[pos:], '[')
	if start < 0 {
		return ""
	}
	start += pos
	depth := 0
	inString := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

// ScanStringArray extracts a flat array of string literals for key. Arrays
// containing objects yield nil; non-string entries are skipped.
func ScanStringArray(raw, key string) []string {
	block := ScanArray(raw, key)
	if block == "" {
		return nil
	}
	inner := block[1 : len(block)-1]
	if strings.IndexByte(inner, '{') >= 0 {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(inner, ",") {
		t := strings.TrimSpace(tok)
		if len(t) < 2 || t[0] != '"' || t[len(t)-1] != '"' {
			continue
		}
		if s := t[1 : len(t)-1]; s != "" {
			out = append(out, s)
		}
	}
	return out
}
