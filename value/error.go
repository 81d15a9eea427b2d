package value

import "fmt"

// ErrorKind classifies a runtime error per spec.md §7.
type ErrorKind uint8

const (
	Syntax ErrorKind = iota
	UnboundName
	TypeMismatch
	ArityMismatch
	BadKey
	BrokenModule
	CircularImport
	User
	StackOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case Syntax:
		return "Syntax"
	case UnboundName:
		return "UnboundName"
	case TypeMismatch:
		return "TypeMismatch"
	case ArityMismatch:
		return "ArityMismatch"
	case BadKey:
		return "BadKey"
	case BrokenModule:
		return "BrokenModule"
	case CircularImport:
		return "CircularImport"
	case User:
		return "User"
	case StackOverflow:
		return "StackOverflow"
	default:
		return "Unknown"
	}
}

// Span is a half-open byte range into a module's source text, attached to
// Syntax and Runtime errors for caret-style diagnostics rendering (which
// lives outside the core; Span is the contract the renderer consumes).
type Span struct {
	Start, End int
}

// Error is the single error type the core raises. Trace accumulates one
// entry per frame popped while the dispatcher unwinds (spec.md §4.F).
type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
	Trace   []TraceEntry
}

// TraceEntry names one unwound activation.
type TraceEntry struct {
	Function string
	Span     Span
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil error>"
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithTrace appends a trace entry and returns the same error, so unwinding
// code can chain: `return nil, err.(*Error).WithTrace(name, span)`.
func (e *Error) WithTrace(function string, span Span) *Error {
	e.Trace = append(e.Trace, TraceEntry{Function: function, Span: span})
	return e
}
