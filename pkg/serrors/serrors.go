// Package serrors classifies pipeline failures into a few semantic kinds
// that callers match with errors.Is.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a semantic error category. Only values from NewKind implement it.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a comparable sentinel kind named name.
func NewKind(name string) Kind { return kind{s: name} }

// Default kinds cover the failure categories of a pipeline run. They are
// sentinels and can be used with errors.Is/As through the Error wrapper.
var (
	// ErrNotFound indicates a source file or a referenced key does not exist.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrMalformed indicates a source file exists but its content cannot be parsed.
	ErrMalformed = NewKind("MALFORMED")
	// ErrConfiguration indicates the inputs are individually valid but cannot
	// produce a usable result together (e.g. the country universe is empty).
	ErrConfiguration = NewKind("CONFIGURATION")
	// ErrBadRequest indicates the caller passed an invalid argument.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrInternal indicates a broken invariant.
	ErrInternal = NewKind("INTERNAL")
)

// KindOf returns the semantic kind found in err's chain, or ErrInternal when
// err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e.kind != nil {
		return e.kind
	}

	return ErrInternal
}

// ExitCode maps err to a process exit status: 0 for nil, otherwise one code
// per kind so scripts can tell a missing export from a bad configuration.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch KindOf(err) {
	case ErrBadRequest:
		return 2
	case ErrNotFound:
		return 3
	case ErrMalformed:
		return 4
	case ErrConfiguration:
		return 5
	default:
		return 1
	}
}

// Error pairs a kind with an optional message and cause. errors.Is and
// errors.As match either the kind or anything in the cause chain.
//
// The message renders as "<msg>: <cause>", falling back to whichever part is
// set and finally to the kind name.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With returns an error of kind k with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap returns an error of kind k wrapping err with a formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly returns a bare error of kind k.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		if e.kind != nil {
			return e.kind.Error()
		}

		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.err != nil && errors.Is(e.err, target) {
		return true
	}

	return false
}

func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.err != nil && errors.As(e.err, target) {
		return true
	}

	return false
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped error, nil for With and KindOnly.
func (e *Error) Cause() error { return e.err }
