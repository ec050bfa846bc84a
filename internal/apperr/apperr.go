// Package apperr defines the closed set of error kinds the backend
// propagates between layers. Handlers translate kinds to HTTP statuses;
// everything below the handlers works with kinds, never status codes or
// message matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Validation         Kind = "invalid_input"
	NotFound           Kind = "not_found"
	InsufficientStock  Kind = "insufficient_stock"
	InvalidTransition  Kind = "invalid_transition"
	NotPending         Kind = "not_pending"
	InvalidReservation Kind = "invalid_reservation"
	Unauthorized       Kind = "unauthorized"
	Forbidden          Kind = "forbidden"
	Conflict           Kind = "conflict"
	Unavailable        Kind = "storage_unavailable"
	TxUnsupported      Kind = "transactions_unsupported"
	Internal           Kind = "internal"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes two apperr errors match when their kinds match, so sentinel
// comparisons like errors.Is(err, apperr.New(apperr.NotFound, "")) work.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind of err, or Internal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
