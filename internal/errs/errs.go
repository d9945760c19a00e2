// Package errs defines the closed error taxonomy every component in the
// knowledge store uses to signal failure. Callers distinguish retryable
// (dependency, internal) from non-retryable (validation, not_found,
// conflict, policy) kinds without inspecting message text.
package errs

import "fmt"

// Kind is one of the closed set of error categories.
type Kind string

const (
	Validation Kind = "validation"
	NotFound   Kind = "not_found"
	Conflict   Kind = "conflict"
	Policy     Kind = "policy"
	Dependency Kind = "dependency"
	Internal   Kind = "internal"
)

// retryable reports whether errors of a given kind should be retried by
// the caller.
func (k Kind) retryable() bool {
	switch k {
	case Dependency, Internal:
		return true
	default:
		return false
	}
}

// Error is the structured error every component returns.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Retryable reports whether the error's kind is retryable.
func (e *Error) Retryable() bool { return e.Kind.retryable() }

// New builds an *Error of the given kind with a formatted message.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind, preserving an underlying cause.
func Wrap(k Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

func NotFoundf(format string, args ...any) *Error   { return New(NotFound, format, args...) }
func Validationf(format string, args ...any) *Error { return New(Validation, format, args...) }
func Conflictf(format string, args ...any) *Error   { return New(Conflict, format, args...) }
func Policyf(format string, args ...any) *Error     { return New(Policy, format, args...) }
func Dependencyf(format string, args ...any) *Error { return New(Dependency, format, args...) }
func Internalf(format string, args ...any) *Error   { return New(Internal, format, args...) }

// KindOf extracts the Kind from err, defaulting to Internal for errors
// that were not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if asError(err, &e) {
		return e.Kind
	}
	return Internal
}

// Retryable reports whether err (of any origin) should be retried.
func Retryable(err error) bool {
	var e *Error
	if asError(err, &e) {
		return e.Retryable()
	}
	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
