package sql

import (
	"errors"
	"fmt"
)

// Compile-time errors. None of them carry SQL text or bound values.
var (
	// ErrInvalidArgument is returned for malformed descriptors and identifiers.
	ErrInvalidArgument = errors.New("dialect/sql: invalid argument")

	// ErrUnsupportedStatement is returned when a Statement implementation is not
	// one of Insert, Select, Update or Delete.
	ErrUnsupportedStatement = errors.New("dialect/sql: unsupported statement")

	// ErrConfig is returned when a TokenGenerator is configured with bounds it
	// cannot satisfy.
	ErrConfig = errors.New("dialect/sql: invalid configuration")

	// ErrTokensExhausted is returned once a TokenGenerator has handed out all its tokens.
	ErrTokensExhausted = errors.New("dialect/sql: tokens exhausted")

	// ErrDuplicateParam is returned when two clauses of one statement were given
	// the same parameter name.
	ErrDuplicateParam = errors.New("dialect/sql: duplicate parameter name")
)

// ArgError describes which argument of a call was rejected and why.
type ArgError struct {
	Arg    string // Argument name, e.g. "table" or "wheres[1].field".
	Reason string
}

// Error returns the error string.
func (e *ArgError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("dialect/sql: invalid argument %s", e.Arg)
	}
	return fmt.Sprintf("dialect/sql: invalid argument %s: %s", e.Arg, e.Reason)
}

// Is reports whether the target error matches ErrInvalidArgument.
func (e *ArgError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// NewArgError returns a new ArgError.
func NewArgError(arg, reason string) *ArgError {
	return &ArgError{Arg: arg, Reason: reason}
}

// IsInvalidArgument returns true if the error is an ArgError.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidArgument)
}
