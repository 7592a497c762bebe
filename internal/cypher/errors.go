package cypher

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a compilation could not be completed.
// The set is closed; the execution adapter treats every kind the same
// way (fall back to row-at-a-time evaluation), the kind exists for
// diagnostics and tests.
type FailureKind uint8

const (
	// FailureEmptyPattern - a BGP or aggregate/group list was empty
	// where non-empty was required.
	FailureEmptyPattern FailureKind = iota
	// FailureUnsupportedShape - a structural pattern the compiler
	// deliberately does not attempt.
	FailureUnsupportedShape
	// FailureUnsupportedAggregate - an aggregate kind outside the
	// supported set.
	FailureUnsupportedAggregate
	// FailureMissingBinding - an expression referenced a variable never
	// bound by the preceding pattern compilation.
	FailureMissingBinding
	// FailureGeometryParse - a spatial literal matched no supported
	// grammar or had zero parseable coordinate pairs.
	FailureGeometryParse
)

// String returns a diagnostic name for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureEmptyPattern:
		return "EmptyPattern"
	case FailureUnsupportedShape:
		return "UnsupportedShape"
	case FailureUnsupportedAggregate:
		return "UnsupportedAggregate"
	case FailureMissingBinding:
		return "MissingBinding"
	case FailureGeometryParse:
		return "GeometryParseFailure"
	default:
		return "Unknown"
	}
}

// CompileError is the typed compilation-failure outcome. It is a value,
// not a crash: every code path that cannot guarantee a correct
// translation returns one of these instead of guessing.
type CompileError struct {
	Kind   FailureKind
	Reason string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("cannot compile: %s: %s", e.Kind, e.Reason)
}

func errEmpty(reason string) error {
	return &CompileError{Kind: FailureEmptyPattern, Reason: reason}
}

func errUnsupported(format string, args ...any) error {
	return &CompileError{Kind: FailureUnsupportedShape, Reason: fmt.Sprintf(format, args...)}
}

func errUnsupportedAggregate(kind fmt.Stringer) error {
	return &CompileError{Kind: FailureUnsupportedAggregate, Reason: fmt.Sprintf("aggregate kind %s", kind)}
}

func errMissingBinding(name string) error {
	return &CompileError{Kind: FailureMissingBinding, Reason: fmt.Sprintf("variable ?%s has no binding", name)}
}

func errGeometry(format string, args ...any) error {
	return &CompileError{Kind: FailureGeometryParse, Reason: fmt.Sprintf(format, args...)}
}

// AsCompileError unwraps err as a *CompileError, if it is one.
func AsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
