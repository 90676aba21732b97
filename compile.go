package jtdc

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okutani/jtdc/internal/scan"
)

// parseFn is the shape of every generated routine: consume one value starting
// at pos and return it with the cursor one past its end. Errors are returned
// directly, so a compiled parser holds no per-invocation state and is safe to
// share across goroutines.
type parseFn func(data []byte, pos int) (any, int, error)

// envState tracks one definition through compilation. A cyclic reference to
// an in-flight definition reuses the forward handle instead of recompiling.
type envState int

const (
	envNotStarted envState = iota
	envInFlight
	envDone
)

type defEnv struct {
	state envState
	fn    *parseFn // shared slot; wired exactly once when compilation completes
}

// compiler builds parseFns for one (schema, definitions) pair. It is used by
// a single goroutine for the duration of one Compile call.
type compiler struct {
	defs map[string]*Schema
	envs map[string]*defEnv
}

func (c *compiler) compileSchema(s *Schema) (parseFn, error) {
	fn, err := c.compileForm(s)
	if err != nil {
		return nil, err
	}
	if s.Nullable {
		fn = nullableFn(fn)
	}
	return fn, nil
}

func (c *compiler) compileForm(s *Schema) (parseFn, error) {
	switch s.Form() {
	case FormElements:
		return c.compileElements(s)
	case FormValues:
		return c.compileValues(s)
	case FormDiscriminator:
		return c.compileDiscriminator(s)
	case FormProperties:
		return c.compileProperties(s, "")
	case FormEnum:
		return c.compileEnum(s)
	case FormType:
		return c.compileType(s)
	case FormRef:
		return c.compileRef(s)
	default:
		return parseAny, nil
	}
}

// nullableFn probes the literal null; on mismatch the probe consumes nothing
// and the wrapped form runs from the original position.
func nullableFn(inner parseFn) parseFn {
	return func(data []byte, pos int) (any, int, error) {
		p := scan.SkipWhitespace(data, pos)
		if np, err := scan.Literal(data, p, "null"); err == nil {
			return nil, np, nil
		}
		return inner(data, pos)
	}
}

func parseAny(data []byte, pos int) (any, int, error) {
	v, np, err := scan.Any(data, pos)
	if err != nil {
		return nil, pos, toIssues(err)
	}
	return v, np, nil
}

func (c *compiler) compileElements(s *Schema) (parseFn, error) {
	elem, err := c.compileSchema(s.Elements)
	if err != nil {
		return nil, err
	}
	return func(data []byte, pos int) (any, int, error) {
		pos, err := expect(data, pos, '[')
		if err != nil {
			return nil, pos, err
		}
		out := []any{}
		pos = scan.SkipWhitespace(data, pos)
		if pos < len(data) && data[pos] == ']' {
			return out, pos + 1, nil
		}
		for {
			v, np, err := elem(data, pos)
			if err != nil {
				return nil, pos, err
			}
			out = append(out, v)
			pos = scan.SkipWhitespace(data, np)
			if pos >= len(data) {
				return nil, pos, syntaxAt(pos, "unterminated array")
			}
			switch data[pos] {
			case ',':
				pos++
			case ']':
				return out, pos + 1, nil
			default:
				return nil, pos, syntaxAt(pos, "expected ',' or ']'")
			}
		}
	}, nil
}

func (c *compiler) compileValues(s *Schema) (parseFn, error) {
	val, err := c.compileSchema(s.Values)
	if err != nil {
		return nil, err
	}
	return func(data []byte, pos int) (any, int, error) {
		pos, err := expect(data, pos, '{')
		if err != nil {
			return nil, pos, err
		}
		out := map[string]any{}
		pos = scan.SkipWhitespace(data, pos)
		if pos < len(data) && data[pos] == '}' {
			return out, pos + 1, nil
		}
		for {
			pos = scan.SkipWhitespace(data, pos)
			keyPos := pos
			key, np, err := scan.String(data, pos)
			if err != nil {
				return nil, pos, toIssues(err)
			}
			if _, dup := out[key]; dup {
				return nil, keyPos, issueAt(keyPos, CodeDuplicateKey, fmt.Sprintf("duplicate key %q", key))
			}
			pos, err = expect(data, np, ':')
			if err != nil {
				return nil, pos, err
			}
			v, np2, err := val(data, pos)
			if err != nil {
				return nil, pos, err
			}
			out[key] = v
			pos = scan.SkipWhitespace(data, np2)
			if pos >= len(data) {
				return nil, pos, syntaxAt(pos, "unterminated object")
			}
			switch data[pos] {
			case ',':
				pos++
			case '}':
				return out, pos + 1, nil
			default:
				return nil, pos, syntaxAt(pos, "expected ',' or '}'")
			}
		}
	}, nil
}

// compileProperties generates the object parser shared by the properties form
// and discriminator branches. When discTag is non-empty that key is
// recognized but its value is discarded; the discriminator wrapper assigns
// the tag itself after the reparse.
func (c *compiler) compileProperties(s *Schema, discTag string) (parseFn, error) {
	required := make(map[string]parseFn, len(s.Properties))
	for name, sub := range s.Properties {
		fn, err := c.compileSchema(sub)
		if err != nil {
			return nil, err
		}
		required[name] = fn
	}
	optional := make(map[string]parseFn, len(s.OptionalProperties))
	for name, sub := range s.OptionalProperties {
		fn, err := c.compileSchema(sub)
		if err != nil {
			return nil, err
		}
		optional[name] = fn
	}
	requiredNames := make([]string, 0, len(required))
	for name := range required {
		requiredNames = append(requiredNames, name)
	}
	sort.Strings(requiredNames)
	allowExtra := s.AdditionalProperties

	return func(data []byte, pos int) (any, int, error) {
		pos, err := expect(data, pos, '{')
		if err != nil {
			return nil, pos, err
		}
		out := make(map[string]any, len(required)+len(optional))
		seen := make(map[string]struct{}, len(required)+len(optional))
		pos = scan.SkipWhitespace(data, pos)
		more := pos < len(data) && data[pos] != '}'
		for more {
			pos = scan.SkipWhitespace(data, pos)
			keyPos := pos
			key, np, err := scan.String(data, pos)
			if err != nil {
				return nil, pos, toIssues(err)
			}
			pos, err = expect(data, np, ':')
			if err != nil {
				return nil, pos, err
			}
			if key != discTag || discTag == "" {
				if _, dup := seen[key]; dup {
					return nil, keyPos, issueAt(keyPos, CodeDuplicateKey, fmt.Sprintf("duplicate key %q", key))
				}
				seen[key] = struct{}{}
			}
			switch {
			case discTag != "" && key == discTag:
				// Recognized but never reassigned on reparse.
				if _, np, err = scan.Any(data, pos); err != nil {
					return nil, pos, toIssues(err)
				}
				pos = np
			default:
				fn := required[key]
				if fn == nil {
					fn = optional[key]
				}
				if fn == nil {
					if !allowExtra {
						return nil, keyPos, issueAt(keyPos, CodeUnknownKey, fmt.Sprintf("property %q not allowed", key))
					}
					if _, np, err = scan.Any(data, pos); err != nil {
						return nil, pos, toIssues(err)
					}
					pos = np
					break
				}
				v, np2, err := fn(data, pos)
				if err != nil {
					return nil, pos, err
				}
				out[key] = v
				pos = np2
			}
			pos = scan.SkipWhitespace(data, pos)
			if pos >= len(data) {
				return nil, pos, syntaxAt(pos, "unterminated object")
			}
			switch data[pos] {
			case ',':
				pos++
			case '}':
				more = false
			default:
				return nil, pos, syntaxAt(pos, "expected ',' or '}'")
			}
		}
		if pos >= len(data) || data[pos] != '}' {
			return nil, pos, syntaxAt(pos, "expected '}'")
		}
		var missing []string
		for _, name := range requiredNames {
			if _, ok := seen[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			msg := "missing required properties: " + strings.Join(missing, ", ")
			return nil, pos, issueAt(pos, CodeRequired, msg)
		}
		return out, pos + 1, nil
	}, nil
}

// compileDiscriminator implements the two-pass protocol: scan the object for
// the tag field, then rewind to the recorded start and reparse with the
// matched branch. The rewind is bounded by one object per discriminator
// level, so work stays linear apart from that single rescan.
func (c *compiler) compileDiscriminator(s *Schema) (parseFn, error) {
	tagField := s.Discriminator
	if len(s.Mapping) == 0 {
		return nil, compileErrf("discriminator %q has an empty mapping", tagField)
	}
	branches := make(map[string]parseFn, len(s.Mapping))
	for tag, branch := range s.Mapping {
		if branch.Nullable {
			return nil, compileErrf("discriminator mapping %q must not be nullable", tag)
		}
		if branch.Form() != FormProperties {
			return nil, compileErrf("discriminator mapping %q must be a properties schema", tag)
		}
		if _, ok := branch.Properties[tagField]; ok {
			return nil, compileErrf("discriminator mapping %q redefines tag %q", tag, tagField)
		}
		if _, ok := branch.OptionalProperties[tagField]; ok {
			return nil, compileErrf("discriminator mapping %q redefines tag %q", tag, tagField)
		}
		fn, err := c.compileProperties(branch, tagField)
		if err != nil {
			return nil, err
		}
		branches[tag] = fn
	}
	return func(data []byte, pos int) (any, int, error) {
		start := scan.SkipWhitespace(data, pos)
		pos, err := expect(data, start, '{')
		if err != nil {
			return nil, pos, err
		}
		// Pass 1: locate the tag, discarding everything else generically.
		tag := ""
		found := false
		pos = scan.SkipWhitespace(data, pos)
		scanning := pos < len(data) && data[pos] != '}'
		for scanning {
			pos = scan.SkipWhitespace(data, pos)
			key, np, err := scan.String(data, pos)
			if err != nil {
				return nil, pos, toIssues(err)
			}
			pos, err = expect(data, np, ':')
			if err != nil {
				return nil, pos, err
			}
			if key == tagField {
				pos = scan.SkipWhitespace(data, pos)
				tv, _, err := scan.String(data, pos)
				if err != nil {
					return nil, pos, toIssues(err)
				}
				tag, found = tv, true
				break
			}
			if _, pos, err = scan.Any(data, pos); err != nil {
				return nil, pos, toIssues(err)
			}
			pos = scan.SkipWhitespace(data, pos)
			if pos >= len(data) {
				return nil, pos, syntaxAt(pos, "unterminated object")
			}
			switch data[pos] {
			case ',':
				pos++
			case '}':
				scanning = false
			default:
				return nil, pos, syntaxAt(pos, "expected ',' or '}'")
			}
		}
		if !found {
			return nil, start, issueAt(start, CodeDiscriminatorMissing, "discriminator tag not found")
		}
		branch, ok := branches[tag]
		if !ok {
			return nil, start, issueAt(start, CodeDiscriminatorUnknown, "discriminator value not in schema")
		}
		// Pass 2: rewind and run the branch over the same object.
		v, np, err := branch(data, start)
		if err != nil {
			return nil, pos, err
		}
		m := v.(map[string]any)
		m[tagField] = tag
		return m, np, nil
	}, nil
}

// compileEnum precomputes each member's JSON encoding and matches them in
// declaration order. Both quotes are part of the literal, so one member being
// a strict prefix of another cannot mis-accept. HTML escaping is disabled so
// members containing '<', '>' or '&' match their canonical spelling.
func (c *compiler) compileEnum(s *Schema) (parseFn, error) {
	lits := make([][]byte, len(s.Enum))
	vals := make([]string, len(s.Enum))
	for i, member := range s.Enum {
		enc, err := encodeEnumLiteral(member)
		if err != nil {
			return nil, compileErrf("encode enum member %q: %v", member, err)
		}
		lits[i] = enc
		vals[i] = member
	}
	return func(data []byte, pos int) (any, int, error) {
		pos = scan.SkipWhitespace(data, pos)
		if pos >= len(data) || data[pos] != '"' {
			return nil, pos, syntaxAt(pos, "expected string")
		}
		for i, lit := range lits {
			if bytes.HasPrefix(data[pos:], lit) {
				return vals[i], pos + len(lit), nil
			}
		}
		return nil, pos, issueAt(pos, CodeInvalidEnum, "value not in enum")
	}, nil
}

func encodeEnumLiteral(member string) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(member); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

type intBounds struct {
	min, max float64
	digits   int // integer-digit bound handed to the scanner
}

var intTypes = map[string]intBounds{
	"int8":   {min: -128, max: 127, digits: 3},
	"uint8":  {min: 0, max: 255, digits: 3},
	"int16":  {min: -32768, max: 32767, digits: 5},
	"uint16": {min: 0, max: 65535, digits: 5},
	"int32":  {min: -2147483648, max: 2147483647, digits: 10},
	"uint32": {min: 0, max: 4294967295, digits: 10},
}

func (c *compiler) compileType(s *Schema) (parseFn, error) {
	switch s.Type {
	case "boolean":
		return parseBoolean, nil
	case "string":
		return parseString, nil
	case "timestamp":
		return parseTimestamp, nil
	case "float32", "float64":
		return parseFloat, nil
	}
	if b, ok := intTypes[s.Type]; ok {
		return intFn(b), nil
	}
	return nil, compileErrf("unknown type %q", s.Type)
}

func parseBoolean(data []byte, pos int) (any, int, error) {
	pos = scan.SkipWhitespace(data, pos)
	if np, err := scan.Literal(data, pos, "true"); err == nil {
		return true, np, nil
	}
	if np, err := scan.Literal(data, pos, "false"); err == nil {
		return false, np, nil
	}
	return nil, pos, syntaxAt(pos, "expected boolean")
}

func parseString(data []byte, pos int) (any, int, error) {
	pos = scan.SkipWhitespace(data, pos)
	v, np, err := scan.String(data, pos)
	if err != nil {
		return nil, pos, toIssues(err)
	}
	return v, np, nil
}

func parseTimestamp(data []byte, pos int) (any, int, error) {
	pos = scan.SkipWhitespace(data, pos)
	v, np, err := scan.String(data, pos)
	if err != nil {
		return nil, pos, toIssues(err)
	}
	if !scan.ValidTimestamp(v) {
		return nil, pos, issueAt(pos, CodeInvalidFormat, "invalid timestamp")
	}
	return v, np, nil
}

func parseFloat(data []byte, pos int) (any, int, error) {
	pos = scan.SkipWhitespace(data, pos)
	f, np, err := scan.Number(data, pos, 0)
	if err != nil {
		return nil, pos, toIssues(err)
	}
	return f, np, nil
}

func intFn(b intBounds) parseFn {
	return func(data []byte, pos int) (any, int, error) {
		pos = scan.SkipWhitespace(data, pos)
		f, np, err := scan.Number(data, pos, b.digits)
		if err != nil {
			var td *scan.TooManyDigitsError
			if errors.As(err, &td) {
				return nil, td.Pos, issueAt(td.Pos, CodeOverflow, "integer out of range")
			}
			return nil, pos, toIssues(err)
		}
		if f != math.Trunc(f) || f < b.min || f > b.max {
			return nil, pos, issueAt(pos, CodeOverflow, "integer out of range")
		}
		return int64(f), np, nil
	}
}

// compileRef resolves the name against the definitions table. Reference-free
// targets are inlined at the call site; anything else is promoted to a
// standalone routine reached through the definition's shared slot, which is
// what lets self-recursive schemas terminate.
func (c *compiler) compileRef(s *Schema) (parseFn, error) {
	name := *s.Ref
	target, ok := c.defs[name]
	if !ok {
		return nil, compileErrf("unresolved ref %q", name)
	}
	if refFree(target) {
		return c.compileSchema(target)
	}
	env := c.envs[name]
	if env == nil {
		env = &defEnv{fn: new(parseFn)}
		c.envs[name] = env
	}
	if env.state == envNotStarted {
		env.state = envInFlight
		fn, err := c.compileSchema(target)
		if err != nil {
			return nil, err
		}
		*env.fn = fn
		env.state = envDone
	}
	// In-flight callers receive the same forward handle; it resolves when the
	// definition finishes compiling above.
	slot := env.fn
	return func(data []byte, pos int) (any, int, error) {
		return (*slot)(data, pos)
	}, nil
}

// refFree reports whether the subtree contains no ref nodes, which makes it
// safe to inline.
func refFree(s *Schema) bool {
	if s == nil {
		return true
	}
	if s.Ref != nil {
		return false
	}
	if !refFree(s.Elements) || !refFree(s.Values) {
		return false
	}
	for _, sub := range s.Mapping {
		if !refFree(sub) {
			return false
		}
	}
	for _, sub := range s.Properties {
		if !refFree(sub) {
			return false
		}
	}
	for _, sub := range s.OptionalProperties {
		if !refFree(sub) {
			return false
		}
	}
	return true
}

// ---- shared helpers ----

func issueAt(pos int, code, msg string) Issues {
	return Issues{{Code: code, Message: msg, Offset: pos}}
}

func syntaxAt(pos int, msg string) Issues { return issueAt(pos, CodeParseError, msg) }

// expect skips whitespace and consumes one required character.
func expect(data []byte, pos int, ch byte) (int, error) {
	pos = scan.SkipWhitespace(data, pos)
	if pos >= len(data) || data[pos] != ch {
		return pos, syntaxAt(pos, fmt.Sprintf("expected %q", string(ch)))
	}
	return pos + 1, nil
}

// toIssues converts scanner errors into the public Issues shape.
func toIssues(err error) error {
	var se *scan.SyntaxError
	if errors.As(err, &se) {
		return Issues{{Code: CodeParseError, Message: se.Msg, Offset: se.Pos}}
	}
	var td *scan.TooManyDigitsError
	if errors.As(err, &td) {
		return Issues{{Code: CodeParseError, Message: "malformed number", Offset: td.Pos}}
	}
	return err
}
