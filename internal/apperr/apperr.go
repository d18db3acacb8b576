// Package apperr defines the typed business errors surfaced by the reservation
// core. Callers branch on Kind instead of matching message strings; repository
// and infrastructure failures are never wrapped into these kinds and propagate
// opaque.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business failure.
type Kind int

const (
	// KindInvalidArgument marks malformed caller input (coordinates, radius,
	// time range). Not retryable unchanged.
	KindInvalidArgument Kind = iota + 1
	// KindNotFound marks a reference to an absent station or booking.
	KindNotFound
	// KindPreconditionFailed marks an entity in the wrong state for the
	// requested operation (non-operational station, terminal booking).
	KindPreconditionFailed
	// KindConflict marks an interval overlap with an existing active booking.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error carries the failure kind plus enough context for the caller to act:
// the offending field for invalid arguments, the colliding booking for
// conflicts.
type Error struct {
	Kind       Kind
	Msg        string
	Field      string // offending field, invalid-argument only
	ConflictID string // colliding booking id, conflict only
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// InvalidArgument reports malformed input on the named field.
func InvalidArgument(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent entity.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %s not found", entity, id)}
}

// PreconditionFailed reports an entity in the wrong state.
func PreconditionFailed(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPreconditionFailed, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports an interval overlap with the named booking.
func Conflict(bookingID, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, ConflictID: bookingID, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the business kind from an error chain; zero means the error
// is not a business failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// As unwraps err into *Error when it is a business failure.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
