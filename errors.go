package vela

import "fmt"

// ErrorKind is the ES5 error taxonomy (spec.md §7): every throwable
// error the core raises carries exactly one of these, which becomes
// the `name` of the resulting Error object at the embedding boundary.
type ErrorKind uint8

const (
	KindError ErrorKind = iota
	KindTypeError
	KindRangeError
	KindSyntaxError
	KindReferenceError
	KindURIError
	KindEvalError
)

func (k ErrorKind) String() string {
	switch k {
	case KindTypeError:
		return "TypeError"
	case KindRangeError:
		return "RangeError"
	case KindSyntaxError:
		return "SyntaxError"
	case KindReferenceError:
		return "ReferenceError"
	case KindURIError:
		return "URIError"
	case KindEvalError:
		return "EvalError"
	default:
		return "Error"
	}
}

// Error is the Go representation of a thrown ECMAScript Error object,
// satisfying the standard `error` interface so it can travel through
// ordinary Go error returns alongside the VM's own pending-exception
// slot (see ExecutionState below). `Value` carries the actual heap
// Error object once one has been materialized (lazily: most throws
// inside the core never need to build the user-visible object until
// something actually inspects it).
type Error struct {
	Kind    ErrorKind
	Message string
	Stack   string
	Value   Value // zero Value until lazily materialized
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func newTypeError(format string, args ...any) *Error {
	return newError(KindTypeError, format, args...)
}

func newRangeError(format string, args ...any) *Error {
	return newError(KindRangeError, format, args...)
}

func newSyntaxError(format string, args ...any) *Error {
	return newError(KindSyntaxError, format, args...)
}

func newReferenceError(format string, args ...any) *Error {
	return newError(KindReferenceError, format, args...)
}

// fatalError describes an engine invariant violation rather than a
// user-throwable condition (spec.md §7). Nothing in the engine raises
// one: newFatal has no callers, and VM.Call reports call-depth
// overflow as an ordinary RangeError.
type fatalError struct{ reason string }

func (f *fatalError) Error() string { return "vela: fatal: " + f.reason }

func newFatal(reason string) *fatalError { return &fatalError{reason: reason} }

// ExecutionState is the per-activation context threaded through every
// operation that can fail (spec.md Glossary: "Execution state").  It
// holds the strict-mode flag in effect, a reference back to the VM
// (so abstract operations like ToPrimitive can invoke user code), and
// the pending-exception slot mirrored by the bytecode interpreter's
// own Throw handling: callers of a fallible operation check HasPendingThrow
// before trusting a returned Value.
type ExecutionState struct {
	vm         *VM
	StrictMode bool
	pending    *Error
}

func newExecutionState(vm *VM, strict bool) *ExecutionState {
	return &ExecutionState{vm: vm, StrictMode: strict}
}

// Throw records err as the pending exception and returns it so call
// sites can write `return state.Throw(newTypeError(...))`.
func (s *ExecutionState) Throw(err *Error) *Error {
	s.pending = err
	return err
}

func (s *ExecutionState) HasPendingThrow() bool { return s.pending != nil }

func (s *ExecutionState) PendingThrow() *Error { return s.pending }

func (s *ExecutionState) ClearPendingThrow() { s.pending = nil }
