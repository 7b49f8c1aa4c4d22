// Package apperr carries the two user-facing error kinds of the core
// (validation vs permission) plus not-found, so the transport edge can
// map outcomes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation covers malformed input, unknown entity ids and
	// entities in the wrong state (already pinned, standup not active...).
	KindValidation Kind = iota
	// KindPermission covers callers that are authenticated (and members
	// where required) but lack the role the operation demands.
	KindPermission
	// KindNotFound covers unknown conversations/messages where the
	// operation distinguishes them from plain bad input.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	default:
		return "validation"
	}
}

// Error is the error type every core operation returns on failure.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

// Validationf builds a validation error.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Permissionf builds a permission error.
func Permissionf(format string, args ...any) error {
	return &Error{Kind: KindPermission, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of err; errors that are not *Error count as
// validation so unexpected failures never leak a 5xx-less surface.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindValidation
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
