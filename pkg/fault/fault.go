// Package fault defines the error kinds raised by the ordermix pipelines.
package fault

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindSchema            Kind = "schema"
	KindRange             Kind = "range"
	KindEnum              Kind = "enum"
	KindType              Kind = "type"
	KindDegenerateScaling Kind = "degenerate_scaling"
	KindArtifact          Kind = "artifact"
)

// Error is a pipeline error tagged with its kind and, when known, the
// offending field.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind for field.
func New(kind Kind, field, message string) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Message: message,
	}
}

// Newf is New with a formatted message.
func Newf(kind Kind, field, format string, args ...any) *Error {
	return New(kind, field, fmt.Sprintf(format, args...))
}

// Wrap tags err with kind.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// KindOf returns the kind of the first fault.Error in the chain of err.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// Is reports whether err carries a fault of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
