// Package sqlgraph classifies errors returned by PostgreSQL.
package sqlgraph

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes for integrity constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// sqlStateError is implemented by drivers exposing the SQLSTATE of an error.
type sqlStateError interface {
	SQLState() string
}

// Code returns the SQLSTATE of err, or "" if err does not carry one.
func Code(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	for err != nil {
		if e, ok := err.(sqlStateError); ok {
			return e.SQLState()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.HasPrefix(Code(err), "23") ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return is(err, pgUniqueViolation, "violates unique constraint")
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return is(err, pgForeignKeyViolation, "violates foreign key constraint")
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return is(err, pgCheckViolation, "violates check constraint")
}

// IsNotNullConstraintError reports if the error resulted from writing NULL into a NOT NULL column.
func IsNotNullConstraintError(err error) bool {
	return is(err, pgNotNullViolation, "violates not-null constraint")
}

// is matches err by SQLSTATE and falls back to the server message for
// drivers that do not expose the code.
func is(err error, code, msg string) bool {
	if err == nil {
		return false
	}
	if c := Code(err); c != "" {
		return c == code
	}
	return strings.Contains(err.Error(), msg)
}
