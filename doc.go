// Package jtdc compiles JTD schemas into specialized JSON parsers. A
// compiled parser reads the input buffer directly into an in-memory value,
// validating inline during a single pass; there is no intermediate generic
// tree and no separate validate-after-parse step.
//
// Compile a schema once and reuse the resulting Parser:
//
//	s, err := jtdc.SchemaFromJSON([]byte(`{"elements":{"type":"int32"}}`))
//	if err != nil { ... }
//	p, err := jtdc.Compile(s)
//	if err != nil { ... }
//	v, err := p.Parse([]byte(`[1, 2, 3]`))
//
// Parse failures are reported as Issues, each entry carrying a code, a
// message, and the byte offset where the failure was detected. Malformed
// schemas are a different class entirely: Compile returns *CompileError and
// no parser exists.
//
// Parser.ParseAt provides the embedding protocol: it consumes one value and
// returns the cursor one past it, leaving trailing input to the caller.
package jtdc
