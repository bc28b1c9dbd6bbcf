package lisp

import "fmt"

// Kind is the error taxonomy from spec.md §7: user errors raised by IR
// execution or builtins, resource errors from the timeout/stack guards,
// decoder errors for dedup-layer decoding failures, and host errors for
// anything crossing in from outside (I/O, formatting). internal/dedup
// itself returns plain Errorf errors, which carry no Kind.
type Kind int

const (
	KindUser Kind = iota
	KindResource
	KindDecoder
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindResource:
		return "resource"
	case KindDecoder:
		return "decoder"
	default:
		return "host"
	}
}

// Info is one annotation in an error's call-stack trail: a file position
// and a label describing the frame at that position (a proc name, "[fn]"
// for an anonymous lambda, or "error occurred here" for the innermost
// frame). Built by Evaluator.makeStackErr while walking the control stack,
// mirroring the original's make_stack_err.
type Info struct {
	FSpan FileSpan
	Label string
}

// ElabError is the error type that crosses the evaluator's boundary:
// every error the evaluator raises is reported as one of these, carrying
// its taxonomy Kind, its primary position and an optional trail of
// call-stack Info built up by the evaluator.
type ElabError struct {
	Pos     Span
	Kind    Kind
	Message string
	Trail   []Info
	// CorrelationID ties this error back to the Evaluator.Run invocation
	// that raised it (see the correlation id note in SPEC_FULL.md).
	CorrelationID string
	wrapped       error
}

func (e *ElabError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *ElabError) Unwrap() error { return e.wrapped }

// simpleError is the plain string error that builtin helpers (Head, Tail,
// arithmetic coercions, ...) return; the evaluator promotes these to a
// full ElabError with position/trail information at the call site where
// the SResult<T> would have been consumed by try1! in the original.
type simpleError string

func (e simpleError) Error() string { return string(e) }

// Errorf builds a plain builtin-level error (no position, no trail yet).
func Errorf(format string, args ...interface{}) error {
	return simpleError(fmt.Sprintf(format, args...))
}

// DecodeErrorf is an alias kept for call sites inside this package that
// raise user-facing "expected X, got Y" style failures from list/ref
// helpers (Head, Tail); semantically identical to Errorf.
func DecodeErrorf(format string, args ...interface{}) error {
	return Errorf(format, args...)
}

// NewUserError wraps a plain error (from a builtin or from Head/Tail/...)
// into an ElabError of kind User at the given position. It attaches no
// label and no call-stack trail.
func NewUserError(pos Span, corrID string, err error) *ElabError {
	return &ElabError{Pos: pos, Kind: KindUser, Message: err.Error(), CorrelationID: corrID, wrapped: err}
}

// NewResourceError builds a timeout/stack-overflow error.
func NewResourceError(corrID, message string) *ElabError {
	return &ElabError{Kind: KindResource, Message: message, CorrelationID: corrID}
}
