// Package errs defines the failure kinds surfaced by the workflow core.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to map it (e.g. to HTTP).
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is a classified error carrying a caller-facing reason.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing task, record, or stage.
func NotFound(format string, args ...interface{}) error {
	return newf(KindNotFound, format, args...)
}

// Forbidden reports an identity without ownership, assignment, or override.
func Forbidden(format string, args ...interface{}) error {
	return newf(KindForbidden, format, args...)
}

// Conflict reports an action against a task in a terminal state.
func Conflict(format string, args ...interface{}) error {
	return newf(KindConflict, format, args...)
}

// Validation reports a malformed request payload.
func Validation(format string, args ...interface{}) error {
	return newf(KindValidation, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
