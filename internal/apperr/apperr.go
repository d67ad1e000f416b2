// Package apperr defines the typed errors the scheduling and payment cores
// return. The HTTP surface owns the mapping to transport status codes; the
// core never sees a ResponseWriter.
package apperr

import (
	"errors"
	"fmt"
)

// ErrVersionConflict signals that a conditional write lost a race with a
// concurrent mutation of the same row. Cores re-read and re-validate; it is
// never surfaced to callers directly.
var ErrVersionConflict = errors.New("concurrent modification")

type Kind int

const (
	// Validation: missing or malformed input; the caller can retry with a
	// corrected request.
	Validation Kind = iota
	// Forbidden: the actor does not own the resource or lacks the role for
	// the action. Never retried.
	Forbidden
	// NotFound: the referenced entity does not exist.
	NotFound
	// InvalidTransition: the requested state change is not an edge of the
	// state machine.
	InvalidTransition
	// SlotConflict: the (doctor, date, time) slot is already booked; the
	// caller should retry with a different slot.
	SlotConflict
	// Upstream: the identity verifier or payment gateway is unavailable.
	Upstream
	// Internal: anything else. Not exposed to callers in detail.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case InvalidTransition:
		return "invalid_transition"
	case SlotConflict:
		return "slot_conflict"
	case Upstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error carries a machine-readable kind, a caller-safe message, and an
// optional wrapped cause for logging.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause. The cause is for logs; Msg stays caller-safe.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
