package diagnostics

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is a structured diagnostic: a Kind plus enough context to name the
// pass and function an InternalError occurred in. The builder shape mirrors
// an errors.NewSemanticError(...).WithHelp(...).Build() pattern, adapted
// from AST source positions to compiler-internal pass/function context.
type Error struct {
	kind    Kind
	message string
	pass    string
	fn      string
	cause   error
}

// New starts building a diagnostic of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to an existing error, preserving it as the cause via
// github.com/pkg/errors so %+v formatting still prints the original
// stack-bearing error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// InPass records which optimizer pass raised the error.
func (e *Error) InPass(pass string) *Error {
	e.pass = pass
	return e
}

// InFunction records which IR function the error occurred in.
func (e *Error) InFunction(fn string) *Error {
	e.fn = fn
	return e
}

// Build finalizes the diagnostic. It exists purely for symmetry with the
// teacher's builder style; New/Wrap already return a usable *Error.
func (e *Error) Build() *Error { return e }

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	switch {
	case e.pass != "" && e.fn != "":
		return fmt.Sprintf("%s: %s (pass=%s, function=%s)", e.kind, e.message, e.pass, e.fn)
	case e.pass != "":
		return fmt.Sprintf("%s: %s (pass=%s)", e.kind, e.message, e.pass)
	default:
		return fmt.Sprintf("%s: %s", e.kind, e.message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, defaulting to InternalError for unrecognized errors — an
// unclassified failure reaching the driver is itself a bug.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return InternalError
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
