// Package apperror defines the error kinds services return to transport code.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind int

const (
	// KindUnexpected is anything not classified otherwise
	KindUnexpected Kind = iota
	// KindNotFound means a referenced record does not exist
	KindNotFound
	// KindConflict means the operation would break a uniqueness rule
	KindConflict
	// KindValidation means the input is malformed
	KindValidation
	// KindUpstream means an external collaborator failed or was unreachable
	KindUpstream
	// KindForbidden means the caller may not touch the record
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindForbidden:
		return "forbidden"
	}
	return "unexpected"
}

// Error is the error type returned by the service layer.
type Error struct {
	Kind    Kind
	Message string
	// Fields carries field-level detail for validation errors
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a KindValidation error with optional field detail.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Field is a shorthand for a validation error on a single field.
func Field(field, problem string) *Error {
	return Validation(fmt.Sprintf("Invalid %s", field), map[string]string{field: problem})
}

// Upstream wraps a failure of an external collaborator.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// Forbidden builds a KindForbidden error.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unexpected wraps any other failure. An *Error passes through unchanged.
func Unexpected(message string, err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindUnexpected, Message: message, Err: err}
}

// KindOf returns the kind of err, KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
