package jtdc

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError           = "parse_error"
	CodeDuplicateKey         = "duplicate_key"
	CodeUnknownKey           = "unknown_key"
	CodeRequired             = "required"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeInvalidEnum          = "invalid_enum"
	CodeOverflow             = "overflow"
	CodeInvalidFormat        = "invalid_format"
)

// Issue represents a single parse failure.
type Issue struct {
	Code    string // One of the codes listed above.
	Message string
	Offset  int // Byte offset into the input where the failure was detected.
}

// Issues is a collection of parse failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. unknown_key at offset 12: property "b" not allowed
		fmt.Fprintf(b, "%s at offset %d: %s", it.Code, it.Offset, it.Message)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// CompileError reports a malformed schema detected while building a parser.
// It is disjoint from parse-time Issues: once Compile fails no Parser exists,
// so construction problems can never surface as parse failures.
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return "jtdc: " + e.Msg }

func compileErrf(format string, args ...any) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...)}
}
