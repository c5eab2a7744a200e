// Package apperr defines the error taxonomy shared by the workbench, the AI
// bridge and the user-facing surfaces.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the boundary that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindQuery
	KindValidation
	KindConfiguration
	KindNetwork
	KindResponseShape
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindQuery:
		return "query error"
	case KindValidation:
		return "validation error"
	case KindConfiguration:
		return "configuration error"
	case KindNetwork:
		return "network error"
	case KindResponseShape:
		return "response error"
	default:
		return "error"
	}
}

// Error is a classified failure of a single operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation is shorthand for a KindValidation error.
func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
