package wire

import (
	"strconv"
	"strings"
)

// Decode parses wire text into a Value. The parser is deliberately
// permissive: malformed input yields null or a prefix of the structure
// instead of an error, because the server side of this protocol is loosely
// typed and occasionally truncates frames.
func Decode(s string) Value {
	if s == "" {
		return Null()
	}
	p := &parser{src: s}
	return p.value()
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipWS() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) value() Value {
	p.skipWS()
	if p.pos >= len(p.src) {
		return Null()
	}
	switch c := p.src[p.pos]; {
	case c == '"':
		return String(p.str())
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	case strings.HasPrefix(p.src[p.pos:], "true"):
		p.pos += 4
		return Boolean(true)
	case strings.HasPrefix(p.src[p.pos:], "false"):
		p.pos += 5
		return Boolean(false)
	case strings.HasPrefix(p.src[p.pos:], "null"):
		p.pos += 4
		return Null()
	default:
		// Unknown token: consume one byte so object/array loops make progress.
		p.pos++
		return Null()
	}
}

func (p *parser) str() string {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if c == '"' {
			break
		}
		if c == '\\' && p.pos < len(p.src) {
			sb.WriteByte(unescape(p.src[p.pos]))
			p.pos++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// unescape maps the byte after a backslash to its decoded form. Unknown
// escapes pass through unchanged. Shared with the field scanner so both
// tiers read the same string from the same frame.
func unescape(c byte) byte {
	switch c {
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	default:
		return c
	}
}

func (p *parser) number() Value {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("-+0123456789.eE", p.src[p.pos]) >= 0 {
		p.pos++
	}
	tok := p.src[start:p.pos]
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return Number(0)
	}
	return Number(f)
}

func (p *parser) object() Value {
	obj := NewObject()
	p.pos++ // skip {
	for {
		p.skipWS()
		if p.pos >= len(p.src) {
			break
		}
		if p.src[p.pos] == '}' {
			p.pos++
			break
		}
		if p.src[p.pos] != '"' {
			// Tolerate stray separators between entries.
			p.pos++
			continue
		}
		key := p.str()
		p.skipWS()
		if p.pos < len(p.src) && p.src[p.pos] == ':' {
			p.pos++
		}
		obj.Set(key, p.value())
		p.skipWS()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.pos < len(p.src) && p.src[p.pos] == '}' {
			p.pos++
			break
		}
	}
	return Value{Kind: KindObject, Obj: obj}
}

func (p *parser) array() Value {
	var arr []Value
	p.pos++ // skip [
	for {
		p.skipWS()
		if p.pos >= len(p.src) {
			break
		}
		if p.src[p.pos] == ']' {
			p.pos++
			break
		}
		arr = append(arr, p.value())
		p.skipWS()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.pos < len(p.src) && p.src[p.pos] == ']' {
			p.pos++
			break
		}
	}
	return Value{Kind: KindArray, Arr: arr}
}
