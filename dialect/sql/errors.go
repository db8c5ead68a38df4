package sql

import (
	"errors"
	"slices"
	"strings"

	"github.com/syssam/dbkit"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return dbkit.IsConstraintError(err) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// errorCoder is an interface for database errors that provide error codes.
type errorCoder interface {
	Code() string
}

// errorNumberer is an interface for database errors that provide numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx, and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlNotNull                = 1048
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return matchConstraint(err, []string{pgUniqueViolation}, []uint16{mysqlDuplicateEntry},
		"Error 1062",                 // MySQL (string fallback)
		"violates unique constraint", // Postgres (string fallback)
		"UNIQUE constraint failed",   // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return matchConstraint(err, []string{pgForeignKeyViolation}, []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		"Error 1451",                      // MySQL (Cannot delete or update a parent row)
		"Error 1452",                      // MySQL (Cannot add or update a child row)
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return matchConstraint(err, []string{pgCheckViolation}, []uint16{mysqlCheckConstraintViolate},
		"Error 3819",                // MySQL
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
	)
}

// IsNotNullConstraintError reports if the error resulted from a NOT NULL constraint violation.
func IsNotNullConstraintError(err error) bool {
	return matchConstraint(err, []string{pgNotNullViolation}, []uint16{mysqlNotNull},
		"Error 1048",                   // MySQL
		"violates not-null constraint", // Postgres
		"NOT NULL constraint failed",   // SQLite
	)
}

// matchConstraint checks the error chain for a SQLSTATE code, a MySQL error
// number, or one of the given message fragments for drivers that expose
// neither.
func matchConstraint(err error, states []string, numbers []uint16, fragments ...string) bool {
	if err == nil {
		return false
	}
	// Check for SQLSTATE code (PostgreSQL, pgx)
	if e, ok := asError[sqlStateError](err); ok && slices.Contains(states, e.SQLState()) {
		return true
	}
	// Check for PostgreSQL pq.Error code
	if e, ok := asError[errorCoder](err); ok && slices.Contains(states, e.Code()) {
		return true
	}
	// Check for MySQL error number
	if e, ok := asError[errorNumberer](err); ok && slices.Contains(numbers, e.Number()) {
		return true
	}
	// Fallback to string matching for drivers that don't implement interfaces
	return containsAny(err.Error(), fragments...)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// wrapError wraps an engine error in a QueryError, and in a ConstraintError
// when it is a constraint violation. Connection errors are returned as is.
func wrapError(op, query string, err error) error {
	if err == nil || errors.Is(err, dbkit.ErrConnectionUnavailable) {
		return err
	}
	qerr := dbkit.NewQueryError(op, query, err)
	if IsConstraintError(err) {
		return dbkit.NewConstraintError(err.Error(), qerr)
	}
	return qerr
}
