package dbkit

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when an introspected table does not exist.
	ErrNotFound = errors.New("dbkit: not found")

	// ErrConnectionUnavailable is returned when an operation is invoked on a
	// driver that has no active connection. The core never retries.
	ErrConnectionUnavailable = errors.New("dbkit: no connection available")

	// ErrSchemaUnsupported is returned when a schema-scoped operation is
	// invoked against a dialect without schema namespaces.
	ErrSchemaUnsupported = errors.New("dbkit: schema not supported")

	// ErrFeatureUnsupported is returned when a statement needs a capability
	// the active dialect does not declare (CTEs, ALTER TABLE constraints, ...).
	ErrFeatureUnsupported = errors.New("dbkit: feature not supported")

	// ErrNoVersion is returned when the engine version query yields no row.
	ErrNoVersion = errors.New("dbkit: unable to get database version")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("dbkit: cannot start a transaction within a transaction")
)

// NotFoundError represents an error when an introspected object is not found.
type NotFoundError struct {
	label string
	name  string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.name != "" {
		return fmt.Sprintf("dbkit: %s %q not found", e.label, e.name)
	}
	return fmt.Sprintf("dbkit: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the object label, e.g. "table".
func (e *NotFoundError) Label() string {
	return e.label
}

// Name returns the name that was searched for, if available.
func (e *NotFoundError) Name() string {
	return e.name
}

// NewNotFoundError returns a new NotFoundError for the given object.
func NewNotFoundError(label, name string) *NotFoundError {
	return &NotFoundError{label: label, name: name}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// UnsupportedTypeError is returned when a logical type or a value variant
// has no mapping in the active dialect.
type UnsupportedTypeError struct {
	Dialect string
	Type    string
}

// Error returns the error string.
func (e *UnsupportedTypeError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("dbkit: %s: no equivalent database type for %q", e.Dialect, e.Type)
	}
	return fmt.Sprintf("dbkit: unsupported type %q", e.Type)
}

// NewUnsupportedTypeError returns a new UnsupportedTypeError.
func NewUnsupportedTypeError(dialect, typ string) *UnsupportedTypeError {
	return &UnsupportedTypeError{Dialect: dialect, Type: typ}
}

// IsUnsupportedType returns true if the error is an UnsupportedTypeError.
func IsUnsupportedType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedTypeError
	return errors.As(err, &e)
}

// QueryError wraps an error returned by the engine for a statement.
// The engine message is kept verbatim.
type QueryError struct {
	Op    string // Operation (e.g., "exec", "query")
	Query string // Statement text
	Err   error  // Underlying engine error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("dbkit: %s %q: %v", e.Op, e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(op, query string, err error) *QueryError {
	return &QueryError{Op: op, Query: query, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("dbkit: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// SchemaUnsupportedError is returned when a schema operation is invoked on a
// dialect without schema support.
type SchemaUnsupportedError struct {
	Dialect string
	Op      string
}

// Error returns the error string.
func (e *SchemaUnsupportedError) Error() string {
	return fmt.Sprintf("dbkit: %s does not support schema (%s)", e.Dialect, e.Op)
}

// Is reports whether the target error matches ErrSchemaUnsupported.
func (e *SchemaUnsupportedError) Is(err error) bool {
	return err == ErrSchemaUnsupported
}

// NewSchemaUnsupportedError returns a new SchemaUnsupportedError.
func NewSchemaUnsupportedError(dialect, op string) *SchemaUnsupportedError {
	return &SchemaUnsupportedError{Dialect: dialect, Op: op}
}

// FeatureUnsupportedError is returned when a statement requires a feature
// the dialect does not support.
type FeatureUnsupportedError struct {
	Dialect string
	Feature string
}

// Error returns the error string.
func (e *FeatureUnsupportedError) Error() string {
	return fmt.Sprintf("dbkit: %s does not support %s", e.Dialect, e.Feature)
}

// Is reports whether the target error matches ErrFeatureUnsupported.
func (e *FeatureUnsupportedError) Is(err error) bool {
	return err == ErrFeatureUnsupported
}

// NewFeatureUnsupportedError returns a new FeatureUnsupportedError.
func NewFeatureUnsupportedError(dialect, feature string) *FeatureUnsupportedError {
	return &FeatureUnsupportedError{Dialect: dialect, Feature: feature}
}

// IntrospectionParseError is returned when the CREATE TABLE source of a
// table could not be parsed for comments. Callers recover from it by
// reporting no comments.
type IntrospectionParseError struct {
	Table  string
	Reason string
}

// Error returns the error string.
func (e *IntrospectionParseError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("dbkit: unable to parse sql statement of %q: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("dbkit: unable to parse sql statement: %s", e.Reason)
}

// IsIntrospectionParseError returns true if the error is an IntrospectionParseError.
func IsIntrospectionParseError(err error) bool {
	if err == nil {
		return false
	}
	var e *IntrospectionParseError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("dbkit: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}
