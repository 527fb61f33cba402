package pgstmt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/pgstmt/dialect/sql"
)

// Errors raised before any I/O, re-exported from dialect/sql.
var (
	ErrInvalidArgument      = sql.ErrInvalidArgument
	ErrUnsupportedStatement = sql.ErrUnsupportedStatement
	ErrConfig               = sql.ErrConfig
	ErrTokensExhausted      = sql.ErrTokensExhausted
)

// StatementError wraps the failure of one statement with enough context to
// find it: its position in a batch, its kind and its table. The SQL text and
// the bound values are deliberately left out.
type StatementError struct {
	Index int // Position in the batch, -1 outside ExecuteMany.
	Kind  sql.Kind
	Table string
	Err   error
}

// Error returns the error string.
func (e *StatementError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("pgstmt: statement %d (%s %s): %v", e.Index, e.Kind, e.Table, e.Err)
	}
	return fmt.Sprintf("pgstmt: %s %s: %v", e.Kind, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// IsStatementError returns true if the error is a StatementError.
func IsStatementError(err error) bool {
	if err == nil {
		return false
	}
	var e *StatementError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Error returned by the rollback.
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("pgstmt: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// BatchError collects the failures of an ExecuteMany call.
// Errors[0] is the failure that stopped the batch.
type BatchError struct {
	Errors []*StatementError
}

// Error returns the error string.
func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "pgstmt: %d statements failed:", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  %v", err)
	}
	return sb.String()
}

// Unwrap returns the statement errors, so errors.Is and errors.As see all of them.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// First returns the failure that stopped the batch.
func (e *BatchError) First() *StatementError {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

// ConfigError reports an invalid Client option.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("pgstmt: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("pgstmt: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}
