package jtdc

import (
	"github.com/okutani/jtdc/internal/scan"
)

// Parser is the compiled unit for one schema. It holds no per-invocation
// state, so a single Parser may be shared across goroutines.
type Parser struct {
	root parseFn
}

// Compile builds a parser for s, resolving refs against s.Definitions.
// Malformed schemas fail with *CompileError before any input is read.
func Compile(s *Schema) (*Parser, error) {
	if s == nil {
		return nil, &CompileError{Msg: "nil schema"}
	}
	return CompileWithDefinitions(s, s.Definitions)
}

// CompileWithDefinitions builds a parser for s against an explicit
// definitions table. Each definition compiles at most once per call; cyclic
// references resolve through forward handles instead of recompiling.
func CompileWithDefinitions(s *Schema, defs map[string]*Schema) (*Parser, error) {
	if s == nil {
		return nil, &CompileError{Msg: "nil schema"}
	}
	c := &compiler{defs: defs, envs: make(map[string]*defEnv)}
	fn, err := c.compileSchema(s)
	if err != nil {
		return nil, err
	}
	return &Parser{root: fn}, nil
}

// Parse reads one value from data, requiring full consumption: leading and
// trailing whitespace is skipped and anything left over is a syntax error.
func (p *Parser) Parse(data []byte) (any, error) {
	v, pos, err := p.root(data, 0)
	if err != nil {
		return nil, err
	}
	pos = scan.SkipWhitespace(data, pos)
	if pos != len(data) {
		return nil, syntaxAt(pos, "unexpected trailing data")
	}
	return v, nil
}

// ParseAt reads one value starting at pos and returns the cursor one past it,
// leaving trailing text to the caller. This is the embedding entry point;
// every nested invocation inside a compiled parser uses the same semantics.
func (p *Parser) ParseAt(data []byte, pos int) (any, int, error) {
	return p.root(data, pos)
}
