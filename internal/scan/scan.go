// Package scan provides position-based JSON token primitives for compiled
// parsers. Every function takes the input buffer and a cursor and returns the
// cursor one past the consumed text; failed probes leave the buffer logically
// untouched because callers keep their own cursor.
package scan

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

// SyntaxError reports malformed input at a byte offset.
type SyntaxError struct {
	Msg string
	Pos int
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("%s at offset %d", e.Msg, e.Pos) }

// TooManyDigitsError reports an integer part longer than the caller's bound.
type TooManyDigitsError struct {
	Pos int
}

func (e *TooManyDigitsError) Error() string {
	return fmt.Sprintf("too many integer digits at offset %d", e.Pos)
}

func errAt(pos int, msg string) error { return &SyntaxError{Msg: msg, Pos: pos} }

// SkipWhitespace advances past JSON insignificant whitespace.
func SkipWhitespace(data []byte, pos int) int {
	for pos < len(data) {
		switch data[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// Literal consumes the exact bytes of lit or fails without consuming.
func Literal(data []byte, pos int, lit string) (int, error) {
	if len(data)-pos < len(lit) || string(data[pos:pos+len(lit)]) != lit {
		return pos, errAt(pos, fmt.Sprintf("expected %q", lit))
	}
	return pos + len(lit), nil
}

// String consumes a JSON string token, returning its decoded value.
func String(data []byte, pos int) (string, int, error) {
	if pos >= len(data) || data[pos] != '"' {
		return "", pos, errAt(pos, "expected string")
	}
	start := pos + 1
	i := start
	// Fast path: no escapes, no control characters.
	for i < len(data) {
		c := data[i]
		if c == '"' {
			return string(data[start:i]), i + 1, nil
		}
		if c == '\\' || c < 0x20 {
			break
		}
		i++
	}
	if i >= len(data) {
		return "", pos, errAt(pos, "unterminated string")
	}
	buf := make([]byte, 0, len(data[start:])+8)
	buf = append(buf, data[start:i]...)
	for i < len(data) {
		c := data[i]
		switch {
		case c == '"':
			return string(buf), i + 1, nil
		case c < 0x20:
			return "", i, errAt(i, "control character in string")
		case c == '\\':
			if i+1 >= len(data) {
				return "", pos, errAt(pos, "unterminated string")
			}
			i++
			switch data[i] {
			case '"', '\\', '/':
				buf = append(buf, data[i])
				i++
			case 'b':
				buf = append(buf, '\b')
				i++
			case 'f':
				buf = append(buf, '\f')
				i++
			case 'n':
				buf = append(buf, '\n')
				i++
			case 'r':
				buf = append(buf, '\r')
				i++
			case 't':
				buf = append(buf, '\t')
				i++
			case 'u':
				r, ni, err := hexRune(data, i+1)
				if err != nil {
					return "", i, err
				}
				i = ni
				if utf16.IsSurrogate(r) {
					if i+1 < len(data) && data[i] == '\\' && data[i+1] == 'u' {
						r2, ni2, err := hexRune(data, i+2)
						if err != nil {
							return "", i, err
						}
						if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
							r = dec
							i = ni2
						} else {
							r = utf8.RuneError
						}
					} else {
						r = utf8.RuneError
					}
				}
				buf = utf8.AppendRune(buf, r)
			default:
				return "", i, errAt(i, "invalid escape")
			}
		default:
			buf = append(buf, c)
			i++
		}
	}
	return "", pos, errAt(pos, "unterminated string")
}

func hexRune(data []byte, pos int) (rune, int, error) {
	if pos+4 > len(data) {
		return 0, pos, errAt(pos, "invalid unicode escape")
	}
	var r rune
	for _, c := range data[pos : pos+4] {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return 0, pos, errAt(pos, "invalid unicode escape")
		}
	}
	return r, pos + 4, nil
}

// Number consumes a JSON number token. When maxIntDigits is positive the
// integer part may not exceed that many digits; violations surface as
// TooManyDigitsError so callers can report range errors instead of syntax
// errors.
func Number(data []byte, pos int, maxIntDigits int) (float64, int, error) {
	start := pos
	if pos < len(data) && data[pos] == '-' {
		pos++
	}
	digits := 0
	if pos < len(data) && data[pos] == '0' {
		digits = 1
		pos++
		// JSON forbids digits after a leading zero.
		if pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
			return 0, start, errAt(start, "malformed number")
		}
	} else {
		for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
			digits++
			pos++
		}
	}
	if digits == 0 {
		return 0, start, errAt(start, "expected number")
	}
	if maxIntDigits > 0 && digits > maxIntDigits {
		return 0, start, &TooManyDigitsError{Pos: start}
	}
	if pos < len(data) && data[pos] == '.' {
		pos++
		frac := 0
		for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
			frac++
			pos++
		}
		if frac == 0 {
			return 0, start, errAt(start, "malformed number")
		}
	}
	if pos < len(data) && (data[pos] == 'e' || data[pos] == 'E') {
		pos++
		if pos < len(data) && (data[pos] == '+' || data[pos] == '-') {
			pos++
		}
		exp := 0
		for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
			exp++
			pos++
		}
		if exp == 0 {
			return 0, start, errAt(start, "malformed number")
		}
	}
	f, err := strconv.ParseFloat(string(data[start:pos]), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, start, errAt(start, "malformed number")
	}
	return f, pos, nil
}

// Any consumes one JSON value of arbitrary shape. Objects decode to
// map[string]any, arrays to []any, numbers to float64. Compiled parsers use
// it for untyped schemas and for values they validate and discard.
func Any(data []byte, pos int) (any, int, error) {
	pos = SkipWhitespace(data, pos)
	if pos >= len(data) {
		return nil, pos, errAt(pos, "unexpected end of input")
	}
	switch c := data[pos]; {
	case c == '{':
		return anyObject(data, pos+1)
	case c == '[':
		return anyArray(data, pos+1)
	case c == '"':
		return stringAny(data, pos)
	case c == 't':
		np, err := Literal(data, pos, "true")
		return true, np, err
	case c == 'f':
		np, err := Literal(data, pos, "false")
		return false, np, err
	case c == 'n':
		np, err := Literal(data, pos, "null")
		return nil, np, err
	case c == '-' || (c >= '0' && c <= '9'):
		return numberAny(data, pos)
	default:
		return nil, pos, errAt(pos, "unexpected character")
	}
}

func stringAny(data []byte, pos int) (any, int, error) {
	s, np, err := String(data, pos)
	return s, np, err
}

func numberAny(data []byte, pos int) (any, int, error) {
	f, np, err := Number(data, pos, 0)
	return f, np, err
}

func anyObject(data []byte, pos int) (any, int, error) {
	out := map[string]any{}
	pos = SkipWhitespace(data, pos)
	if pos < len(data) && data[pos] == '}' {
		return out, pos + 1, nil
	}
	for {
		pos = SkipWhitespace(data, pos)
		key, np, err := String(data, pos)
		if err != nil {
			return nil, pos, err
		}
		pos = SkipWhitespace(data, np)
		if pos >= len(data) || data[pos] != ':' {
			return nil, pos, errAt(pos, "expected ':'")
		}
		v, np2, err := Any(data, pos+1)
		if err != nil {
			return nil, pos, err
		}
		out[key] = v
		pos = SkipWhitespace(data, np2)
		if pos >= len(data) {
			return nil, pos, errAt(pos, "unterminated object")
		}
		switch data[pos] {
		case ',':
			pos++
		case '}':
			return out, pos + 1, nil
		default:
			return nil, pos, errAt(pos, "expected ',' or '}'")
		}
	}
}

func anyArray(data []byte, pos int) (any, int, error) {
	out := []any{}
	pos = SkipWhitespace(data, pos)
	if pos < len(data) && data[pos] == ']' {
		return out, pos + 1, nil
	}
	for {
		v, np, err := Any(data, pos)
		if err != nil {
			return nil, pos, err
		}
		out = append(out, v)
		pos = SkipWhitespace(data, np)
		if pos >= len(data) {
			return nil, pos, errAt(pos, "unterminated array")
		}
		switch data[pos] {
		case ',':
			pos++
		case ']':
			return out, pos + 1, nil
		default:
			return nil, pos, errAt(pos, "expected ',' or ']'")
		}
	}
}

// ValidTimestamp reports whether s is an RFC 3339 timestamp. time.Parse
// rejects the leap second RFC 3339 permits, so seconds value 60 is retried
// with 59.
func ValidTimestamp(s string) bool {
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	if len(s) >= 19 && s[17] == '6' && s[18] == '0' {
		if _, err := time.Parse(time.RFC3339, s[:17]+"59"+s[19:]); err == nil {
			return true
		}
	}
	return false
}
